package constants

// Automatic length-scale bounds
const (
	// correlation reached at the representative small distance
	DefaultMinCorrelation = 0.01
	// correlation reached at the representative large distance
	DefaultMaxCorrelation = 0.5
	// quantile of pairwise squared distances taken as representative
	DefaultDistanceQuantile = 0.05

	// root search interval for Matern length-scales
	MaternSearchMax = 100.0

	// bisection stops when the bracket is this narrow relative to its midpoint
	RootSearchRelTol  = 1e-10
	RootSearchMaxIter = 200

	// used when the Matern root search fails
	FallbackThetaMin = 1e-2
	FallbackThetaMax = 5.0
)
