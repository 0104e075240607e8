package gp

import (
	"math"

	"github.com/llm-d-incubation/homgp/internal/constants"
	"github.com/llm-d-incubation/homgp/pkg/kernel"
)

// Hyperparameters held fixed during fitting
type Known struct {
	Theta []float64 `json:"theta,omitempty"`
	G     *float64  `json:"g,omitempty"`
	Beta0 *float64  `json:"beta0,omitempty"`
}

// Optimizer starting point
type Init struct {
	Theta []float64 `json:"theta,omitempty"`
	G     *float64  `json:"g,omitempty"`
}

// Bounds on the noise-to-signal ratio g; a zero entry takes its default.
type NoiseControl struct {
	GBounds [2]float64 `json:"gBounds"`
}

// Optimizer settings
type Settings struct {
	DiscardKi bool    `json:"discardKi,omitempty"` // do not keep the inverse covariance on the model
	Factr     float64 `json:"factr"`               // relative reduction tolerance, in units of machine epsilon
	Pgtol     float64 `json:"pgtol"`               // gradient norm tolerance
}

// Fit options. Nil slices and pointers are resolved to defaults.
type FitOptions struct {
	Lower        []float64      `json:"lower,omitempty"` // length-scale lower bounds (nil: automatic)
	Upper        []float64      `json:"upper,omitempty"` // length-scale upper bounds (nil: automatic)
	Known        Known          `json:"known"`
	NoiseControl NoiseControl   `json:"noiseControl"`
	Init         Init           `json:"init"`
	CovType      kernel.CovType `json:"covType"`
	MaxIt        int            `json:"maxIt"`
	Eps          *float64       `json:"eps,omitempty"` // diagonal jitter (nil: sqrt of machine epsilon)
	Settings     Settings       `json:"settings"`
}

// DefaultFitOptions uses a Gaussian kernel with automatic bounds.
func DefaultFitOptions() *FitOptions {
	eps := DefaultEps()
	return &FitOptions{
		NoiseControl: NoiseControl{GBounds: [2]float64{DefaultGMin(), constants.DefaultGMax}},
		CovType:      kernel.Gaussian,
		MaxIt:        constants.DefaultMaxIt,
		Eps:          &eps,
		Settings: Settings{
			Factr: constants.DefaultFactr,
			Pgtol: constants.DefaultPgtol,
		},
	}
}

func DefaultEps() float64 {
	return math.Sqrt(constants.MachineEpsilon)
}

func DefaultGMin() float64 {
	return math.Sqrt(constants.MachineEpsilon)
}

// Resolved arguments echoed on the fitted model
type UsedArgs struct {
	Lower        []float64      `json:"lower,omitempty"`
	Upper        []float64      `json:"upper,omitempty"`
	Known        Known          `json:"known"`
	NoiseControl NoiseControl   `json:"noiseControl"`
	Init         Init           `json:"init"`
	CovType      kernel.CovType `json:"covType"`
	MaxIt        int            `json:"maxIt"`
	Eps          float64        `json:"eps"`
	Settings     Settings       `json:"settings"`
}

// resolved fills defaults into a copy of the options.
func (o *FitOptions) resolved() *FitOptions {
	if o == nil {
		return DefaultFitOptions()
	}
	r := *o
	if r.MaxIt <= 0 {
		r.MaxIt = constants.DefaultMaxIt
	}
	if r.Eps == nil {
		eps := DefaultEps()
		r.Eps = &eps
	}
	if r.NoiseControl.GBounds[0] == 0 {
		r.NoiseControl.GBounds[0] = DefaultGMin()
	}
	if r.NoiseControl.GBounds[1] == 0 {
		r.NoiseControl.GBounds[1] = constants.DefaultGMax
	}
	if r.Settings.Factr <= 0 {
		r.Settings.Factr = constants.DefaultFactr
	}
	return &r
}
