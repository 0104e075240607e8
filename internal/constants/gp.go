package constants

// MachineEpsilon is the float64 spacing at 1.
const MachineEpsilon = 2.220446049250313e-16

// Fit defaults
const (
	// upper bound on the noise-to-signal ratio
	DefaultGMax = 1e2
	// optimizer iteration cap
	DefaultMaxIt = 100
	// relative function tolerance in units of machine epsilon
	DefaultFactr = 1e7
	// projected gradient tolerance, 0 disables the test
	DefaultPgtol = 0.0
	// noise ratio start when too few replicates exist to estimate it
	DefaultGInit = 0.1
	// replicate count above which a location informs the noise start
	NoiseInitMinReplicates = 2
)

// Optimizer messages
const (
	MsgAllKnown     = "All hyperparameters given"
	MsgBestSoFarFmt = "Optimization stopped (%s), use best value so far"
)
