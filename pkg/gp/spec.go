package gp

import (
	"fmt"

	"github.com/llm-d-incubation/homgp/pkg/config"
	"github.com/llm-d-incubation/homgp/pkg/kernel"
	"github.com/llm-d-incubation/homgp/pkg/reps"
)

// FitFromSpec fits a model to the data and options of a fit specification.
// File data must already be resolved.
func FitFromSpec(spec *config.FitSpec) (*Model, error) {
	d, err := DesignFromSpec(&spec.Data)
	if err != nil {
		return nil, err
	}
	o, err := OptionsFromSpec(spec)
	if err != nil {
		return nil, err
	}
	return FitDesign(d, o)
}

// DesignFromSpec builds the replicated design from raw rows or from an
// already collapsed design; missing multiplicities default to 1.
func DesignFromSpec(data *config.DataSpec) (*reps.Design, error) {
	switch {
	case len(data.X) > 0 && len(data.X0) > 0:
		return nil, fmt.Errorf("%w: both x and x0 given", ErrInvalidInput)
	case len(data.X) > 0:
		X, err := NewMatrix(data.X)
		if err != nil {
			return nil, err
		}
		return reps.Find(X, data.Z)
	case len(data.X0) > 0:
		X0, err := NewMatrix(data.X0)
		if err != nil {
			return nil, err
		}
		mult := data.Mult
		if mult == nil {
			n, _ := X0.Dims()
			mult = make([]int, n)
			for i := range mult {
				mult[i] = 1
			}
		}
		return reps.NewDesign(X0, data.Z0, mult, data.Z)
	}
	return nil, fmt.Errorf("%w: no data", ErrInvalidInput)
}

// OptionsFromSpec converts a fit specification into fit options.
func OptionsFromSpec(spec *config.FitSpec) (*FitOptions, error) {
	o := DefaultFitOptions()
	if spec.CovType != "" {
		c, err := kernel.ParseCovType(spec.CovType)
		if err != nil {
			return nil, err
		}
		o.CovType = c
	}
	o.Lower = spec.Lower
	o.Upper = spec.Upper
	o.Known = Known{Theta: spec.Known.Theta, G: spec.Known.G, Beta0: spec.Known.Beta0}
	o.Init = Init{Theta: spec.Init.Theta, G: spec.Init.G}
	switch len(spec.NoiseControl.GBounds) {
	case 0:
	case 2:
		o.NoiseControl.GBounds = [2]float64{spec.NoiseControl.GBounds[0], spec.NoiseControl.GBounds[1]}
	default:
		return nil, fmt.Errorf("%w: gBounds needs 2 values, got %d", ErrInvalidBounds, len(spec.NoiseControl.GBounds))
	}
	if spec.MaxIt > 0 {
		o.MaxIt = spec.MaxIt
	}
	if spec.Eps != nil {
		o.Eps = spec.Eps
	}
	if spec.Settings.ReturnKi != nil {
		o.Settings.DiscardKi = !*spec.Settings.ReturnKi
	}
	if spec.Settings.Factr > 0 {
		o.Settings.Factr = spec.Settings.Factr
	}
	o.Settings.Pgtol = spec.Settings.Pgtol
	return o, nil
}
