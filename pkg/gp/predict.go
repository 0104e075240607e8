package gp

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/llm-d-incubation/homgp/internal/logger"
)

// Prediction at query locations
type Prediction struct {
	Mean []float64  `json:"mean"` // posterior mean
	SD2  []float64  `json:"sd2"`  // posterior variance of the latent process
	Nugs []float64  `json:"nugs"` // noise variance
	Cov  *mat.Dense `json:"-"`    // posterior covariance between x and xprime, if requested

	// Count of variances clamped to zero
	NegativeVariances int      `json:"negativeVariances,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

// Column reshapes a vector of scalar inputs into a one-column matrix.
func Column(v []float64) *mat.Dense {
	logger.Log.Warnf("reshaping %d inputs into a single column", len(v))
	return mat.NewDense(len(v), 1, append([]float64(nil), v...))
}

// Predict returns the posterior at the rows of x and, when xprime is not nil,
// the posterior covariance between x and xprime. A stripped inverse
// covariance is rebuilt first.
func (m *Model) Predict(x, xprime mat.Matrix) (*Prediction, error) {
	_, d := m.X0.Dims()
	if x == nil {
		return nil, fmt.Errorf("%w: nil query", ErrInvalidInput)
	}
	if _, c := x.Dims(); c != d {
		return nil, fmt.Errorf("%w: x has %d columns, X0 has %d", ErrDimensionMismatch, c, d)
	}
	if xprime != nil {
		if _, c := xprime.Dims(); c != d {
			return nil, fmt.Errorf("%w: xprime has %d columns, X0 has %d", ErrDimensionMismatch, c, d)
		}
	}
	k, err := m.kern()
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	for m.ki == nil {
		m.mu.RUnlock()
		if err := m.ensureKi(); err != nil {
			return nil, err
		}
		m.mu.RLock()
	}
	defer m.mu.RUnlock()
	ki := m.ki

	n0 := len(m.Z0)
	nu := m.NuHat

	// Ki/nu is the inverse of the scaled covariance; nu cancels in the mean.
	kx := k.Cov(x, m.X0, m.Theta)
	nx, _ := kx.Dims()
	centered := append([]float64(nil), m.Z0...)
	floats.AddConst(-m.Beta0, centered)
	alpha := mat.NewVecDense(n0, nil)
	alpha.MulVec(ki, mat.NewVecDense(n0, centered))

	mean := mat.NewVecDense(nx, nil)
	mean.MulVec(kx, alpha)
	pred := &Prediction{
		Mean: mean.RawVector().Data,
		SD2:  make([]float64, nx),
		Nugs: make([]float64, nx),
	}
	floats.AddConst(m.Beta0, pred.Mean)

	var kxKi mat.Dense
	kxKi.Mul(kx, ki)

	// OK: rowSums(Ki/nu) and sum(Ki/nu) enter through r and sumKi
	var r []float64
	var sumKi float64
	ordinary := m.TrendType == OK
	if ordinary {
		r = make([]float64, n0)
		for i := range n0 {
			for j := range n0 {
				r[i] += ki.At(i, j)
			}
		}
		sumKi = floats.Sum(r)
	}
	ux := trendResidual(kx, r)

	for i := range nx {
		q := floats.Dot(kxKi.RawRowView(i), kx.RawRowView(i))
		sd2 := nu * (1 - q)
		if ordinary {
			sd2 += nu * ux[i] * ux[i] / sumKi
		}
		if sd2 < 0 {
			sd2 = 0
			pred.NegativeVariances++
		}
		pred.SD2[i] = sd2
		pred.Nugs[i] = nu * m.G
	}
	if pred.NegativeVariances > 0 {
		msg := fmt.Sprintf("%d negative variances set to 0 due to numerical precision, consider Rebuild(true)",
			pred.NegativeVariances)
		logger.Log.Warn(msg)
		pred.Warnings = append(pred.Warnings, msg)
	}

	if xprime != nil {
		kxp := k.Cov(xprime, m.X0, m.Theta)
		pred.Cov = crossCov(k.Cov(x, xprime, m.Theta), kx, kxp, ki, &kxKi)
		pred.Cov.Scale(nu, pred.Cov)
		if ordinary {
			uxp := trendResidual(kxp, r)
			for i := range ux {
				for j := range uxp {
					pred.Cov.Set(i, j, pred.Cov.At(i, j)+nu*ux[i]*uxp[j]/sumKi)
				}
			}
		}
	}
	return pred, nil
}

// ensureKi rebuilds a stripped inverse covariance through Cholesky.
func (m *Model) ensureKi() error {
	m.mu.RLock()
	present := m.ki != nil
	m.mu.RUnlock()
	if present {
		return nil
	}
	ki, err := m.inverse(false)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if m.ki == nil {
		m.ki = ki
	}
	m.mu.Unlock()
	return nil
}

// trendResidual is 1 - kx r per row, or nil without r.
func trendResidual(kx *mat.Dense, r []float64) []float64 {
	if r == nil {
		return nil
	}
	n, _ := kx.Dims()
	u := make([]float64, n)
	for i := range n {
		u[i] = 1 - floats.Dot(kx.RawRowView(i), r)
	}
	return u
}

// crossCov is kxx' - kx Ki kx'^T, associated so the smaller side is
// multiplied through Ki first. Both orders give the same product.
func crossCov(kxxp, kx, kxp *mat.Dense, ki *mat.SymDense, kxKi *mat.Dense) *mat.Dense {
	nx, _ := kx.Dims()
	np, _ := kxp.Dims()
	var prod mat.Dense
	if nx < np {
		prod.Mul(kxKi, kxp.T())
	} else {
		var kiKxp mat.Dense
		kiKxp.Mul(ki, kxp.T())
		prod.Mul(kx, &kiKxp)
	}
	out := mat.DenseCopyOf(kxxp)
	out.Sub(out, &prod)
	return out
}
