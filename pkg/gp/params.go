package gp

import (
	"fmt"
	"math"
)

// Param is either a free hyperparameter searched over [Lower, Upper] from
// Init, or a fixed one held at Value.
type Param struct {
	fixed bool
	Lower []float64
	Upper []float64
	Init  []float64
	Value []float64
}

// Free hyperparameter; init is clamped into the bounds.
func Free(lower, upper, init []float64) (Param, error) {
	if len(lower) == 0 || len(lower) != len(upper) || len(init) != len(lower) {
		return Param{}, fmt.Errorf("%w: len(lower)=%d, len(upper)=%d, len(init)=%d",
			ErrInvalidBounds, len(lower), len(upper), len(init))
	}
	start := make([]float64, len(init))
	for i := range lower {
		lo, hi := lower[i], upper[i]
		if !(lo > 0) || math.IsInf(hi, 0) || math.IsNaN(hi) || lo > hi {
			return Param{}, fmt.Errorf("%w: [%v, %v] at index %d", ErrInvalidBounds, lo, hi, i)
		}
		start[i] = math.Min(math.Max(init[i], lo), hi)
		if math.IsNaN(init[i]) {
			start[i] = math.Sqrt(lo * hi)
		}
	}
	return Param{
		Lower: append([]float64(nil), lower...),
		Upper: append([]float64(nil), upper...),
		Init:  start,
	}, nil
}

// Fixed hyperparameter.
func Fixed(value []float64) Param {
	return Param{fixed: true, Value: append([]float64(nil), value...)}
}

func (p Param) IsFixed() bool {
	return p.fixed
}

// Len of the hyperparameter vector.
func (p Param) Len() int {
	if p.fixed {
		return len(p.Value)
	}
	return len(p.Init)
}

// Start is the fixed value or the initial point.
func (p Param) Start() []float64 {
	if p.fixed {
		return p.Value
	}
	return p.Init
}
