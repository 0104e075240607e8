package config

// Data of a fit: raw rows with responses, an already collapsed design, or a
// CSV file of rows x1,...,xd,z
type DataSpec struct {
	X    [][]float64 `json:"x,omitempty" yaml:"x,omitempty"`       // raw input rows
	Z    []float64   `json:"z,omitempty" yaml:"z,omitempty"`       // all responses
	X0   [][]float64 `json:"x0,omitempty" yaml:"x0,omitempty"`     // unique input rows
	Z0   []float64   `json:"z0,omitempty" yaml:"z0,omitempty"`     // averaged responses at X0
	Mult []int       `json:"mult,omitempty" yaml:"mult,omitempty"` // replicates per unique row
	File string      `json:"file,omitempty" yaml:"file,omitempty"` // CSV file, relative to the spec file
}

// Hyperparameters held fixed
type KnownSpec struct {
	Theta []float64 `json:"theta,omitempty" yaml:"theta,omitempty"`
	G     *float64  `json:"g,omitempty" yaml:"g,omitempty"`
	Beta0 *float64  `json:"beta0,omitempty" yaml:"beta0,omitempty"`
}

// Bounds on the noise-to-signal ratio
type NoiseControlSpec struct {
	GBounds []float64 `json:"gBounds,omitempty" yaml:"gBounds,omitempty"` // [min, max]
}

// Optimizer starting point
type InitSpec struct {
	Theta []float64 `json:"theta,omitempty" yaml:"theta,omitempty"`
	G     *float64  `json:"g,omitempty" yaml:"g,omitempty"`
}

// Optimizer settings
type SettingsSpec struct {
	ReturnKi *bool   `json:"returnKi,omitempty" yaml:"returnKi,omitempty"` // keep the inverse covariance (default true)
	Factr    float64 `json:"factr,omitempty" yaml:"factr,omitempty"`
	Pgtol    float64 `json:"pgtol,omitempty" yaml:"pgtol,omitempty"`
}

// Specification of a model fit
type FitSpec struct {
	Data         DataSpec         `json:"data" yaml:"data"`
	CovType      string           `json:"covType,omitempty" yaml:"covType,omitempty"` // Gaussian, Matern5_2 or Matern3_2
	Lower        []float64        `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper        []float64        `json:"upper,omitempty" yaml:"upper,omitempty"`
	Known        KnownSpec        `json:"known,omitempty" yaml:"known,omitempty"`
	NoiseControl NoiseControlSpec `json:"noiseControl,omitempty" yaml:"noiseControl,omitempty"`
	Init         InitSpec         `json:"init,omitempty" yaml:"init,omitempty"`
	MaxIt        int              `json:"maxIt,omitempty" yaml:"maxIt,omitempty"`
	Eps          *float64         `json:"eps,omitempty" yaml:"eps,omitempty"`
	Settings     SettingsSpec     `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Query locations of a prediction
type PredictSpec struct {
	X      [][]float64 `json:"x" yaml:"x"`                               // query rows
	XPrime [][]float64 `json:"xprime,omitempty" yaml:"xprime,omitempty"` // rows for the posterior covariance
}

// Fit then predict in one call
type FitPredictSpec struct {
	Spec        FitSpec `json:"spec" yaml:"spec"`
	PredictSpec `yaml:",inline"`
}
