package gp

import (
	"fmt"

	"github.com/llm-d-incubation/homgp/pkg/kernel"
	"github.com/llm-d-incubation/homgp/pkg/reps"
)

// Components selects which partial derivatives DLogLik returns.
type Components struct {
	Theta bool
	G     bool
}

// AllComponents requests the derivatives for theta and g.
var AllComponents = Components{Theta: true, G: true}

// DLogLik returns the gradient of LogLik at (theta, g): one entry per theta
// component when requested, then the g entry when requested. f must come from
// LogLik at the same theta and g.
func DLogLik(d *reps.Design, theta []float64, g float64, f *Factorization, k kernel.Kernel, comps Components) ([]float64, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil factorization", ErrStaleFactorization)
	}
	if !sameParams(f, theta, g) {
		return nil, fmt.Errorf("%w: factorization at theta=%v g=%v, requested theta=%v g=%v",
			ErrStaleFactorization, f.Theta, f.G, theta, g)
	}
	n := d.Unique()
	if f.Ki.SymmetricDim() != n || len(f.KiZ0) != n || len(d.Mult) != n {
		return nil, fmt.Errorf("%w: factorization of size %d, design of size %d",
			ErrDimensionMismatch, f.Ki.SymmetricDim(), n)
	}

	N := float64(d.N())
	denom := f.Denom()
	out := make([]float64, 0, len(theta)+1)

	if comps.Theta {
		for idx := range theta {
			factor := k.PartialFactor(d.X0, theta, idx)
			var quad, trace float64
			for i := range n {
				for j := range n {
					dC := factor.At(i, j) * f.C.At(i, j)
					quad += f.KiZ0[i] * dC * f.KiZ0[j]
					trace += f.Ki.At(i, j) * dC
				}
			}
			out = append(out, N/2*quad/denom-trace/2)
		}
	}

	if comps.G {
		var wz2, wdiag float64
		for i, m := range d.Mult {
			wz2 += f.KiZ0[i] * f.KiZ0[i] / float64(m)
			wdiag += f.Ki.At(i, i) / float64(m)
		}
		dg := N/2*(f.SSQ/(g*g)+wz2)/denom - (N-float64(n))/(2*g) - wdiag/2
		out = append(out, dg)
	}
	return out, nil
}

func sameParams(f *Factorization, theta []float64, g float64) bool {
	if f.G != g || len(f.Theta) != len(theta) {
		return false
	}
	for i := range theta {
		if f.Theta[i] != theta[i] {
			return false
		}
	}
	return true
}
