package gp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/llm-d-incubation/homgp/internal/logger"
	"github.com/llm-d-incubation/homgp/pkg/kernel"
	"github.com/llm-d-incubation/homgp/pkg/reps"
)

// Factorization holds the products of one likelihood evaluation that the
// gradient and the predictor reuse.
type Factorization struct {
	Theta    []float64     // length-scales it was computed at
	G        float64       // noise ratio it was computed at
	C        *mat.SymDense // correlation matrix among unique locations
	Ki       *mat.SymDense // inverse of C + diag(eps + g/mult)
	LogDetKi float64       // log determinant of Ki
	Beta0    float64       // trend, given or estimated
	KiZ0     []float64     // Ki (Z0 - Beta0)
	SSQ      float64       // within-replicate sum of squares
	Psi0     float64       // (Z0 - Beta0)' Ki (Z0 - Beta0)
}

// Denom is the quantity N * psi, shared by the likelihood and its gradient.
func (f *Factorization) Denom() float64 {
	return f.SSQ/f.G + f.Psi0
}

// NuHat is the plug-in process variance.
func (f *Factorization) NuHat(n int) float64 {
	return f.Denom() / float64(n)
}

// LogLik evaluates the concentrated log-likelihood of the replicated design.
// A nil beta0 estimates the trend by generalized least squares.
// A non positive definite covariance returns ErrNotPositiveDefinite.
func LogLik(d *reps.Design, theta []float64, g float64, beta0 *float64, k kernel.Kernel, eps float64) (float64, *Factorization, error) {
	if err := d.Validate(); err != nil {
		return 0, nil, err
	}
	if err := kernel.CheckTheta(theta, d.Dim()); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrDimensionMismatch, err)
	}
	if !(g > 0) || math.IsInf(g, 0) {
		return 0, nil, fmt.Errorf("%w: g=%v must be positive", ErrInvalidInput, g)
	}
	if eps < 0 || math.IsNaN(eps) {
		return 0, nil, fmt.Errorf("%w: eps=%v", ErrInvalidInput, eps)
	}

	C := k.CovSym(d.X0, theta)
	ki, logDetA, err := invertSPD(addNugget(C, g, d.Mult, eps))
	if err != nil {
		return 0, nil, err
	}

	n := d.Unique()
	N := d.N()
	f := &Factorization{
		Theta:    append([]float64(nil), theta...),
		G:        g,
		C:        C,
		Ki:       ki,
		LogDetKi: -logDetA,
	}

	if beta0 != nil {
		f.Beta0 = *beta0
	} else {
		f.Beta0 = glsTrend(ki, d.Z0)
	}

	centered := make([]float64, n)
	copy(centered, d.Z0)
	floats.AddConst(-f.Beta0, centered)
	kiz := mat.NewVecDense(n, nil)
	kiz.MulVec(ki, mat.NewVecDense(n, centered))
	f.KiZ0 = kiz.RawVector().Data
	f.Psi0 = floats.Dot(centered, f.KiZ0)

	var total, between float64
	for _, z := range d.Z {
		total += (z - f.Beta0) * (z - f.Beta0)
	}
	for i, c := range centered {
		between += float64(d.Mult[i]) * c * c
	}
	f.SSQ = total - between

	psi := f.NuHat(N)
	var sumLogMult float64
	for _, m := range d.Mult {
		sumLogMult += math.Log(float64(m))
	}
	ll := -0.5*float64(N)*math.Log(2*math.Pi) - 0.5*float64(N)*math.Log(psi) +
		0.5*f.LogDetKi - 0.5*float64(N-n)*math.Log(g) - 0.5*sumLogMult - 0.5*float64(N)
	if math.IsNaN(ll) || math.IsInf(ll, 0) {
		return ll, f, fmt.Errorf("%w: log-likelihood %v", ErrNotPositiveDefinite, ll)
	}
	return ll, f, nil
}

// addNugget returns C + diag(eps + g/mult).
func addNugget(C *mat.SymDense, g float64, mult []int, eps float64) *mat.SymDense {
	A := mat.NewSymDense(C.SymmetricDim(), nil)
	A.CopySym(C)
	for i, m := range mult {
		A.SetSym(i, i, A.At(i, i)+eps+g/float64(m))
	}
	return A
}

// invertSPD inverts A through its Cholesky factor and returns log|A|.
// Ill-conditioning alone is not an error; a failed factorization or a
// non-finite inverse is.
func invertSPD(A *mat.SymDense) (*mat.SymDense, float64, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(A); !ok {
		return nil, 0, ErrNotPositiveDefinite
	}
	ki := mat.NewSymDense(A.SymmetricDim(), nil)
	if err := chol.InverseTo(ki); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, 0, fmt.Errorf("%w: %v", ErrNotPositiveDefinite, err)
		}
		logger.Log.Debugf("ill-conditioned covariance: %v", err)
	}
	if !finiteSym(ki) {
		return nil, 0, fmt.Errorf("%w: non-finite inverse", ErrNotPositiveDefinite)
	}
	logDet := chol.LogDet()
	if math.IsNaN(logDet) || math.IsInf(logDet, 0) {
		return nil, 0, fmt.Errorf("%w: log determinant %v", ErrNotPositiveDefinite, logDet)
	}
	return ki, logDet, nil
}

// glsTrend is (1' Ki Z0) / (1' Ki 1).
func glsTrend(ki *mat.SymDense, z0 []float64) float64 {
	n := ki.SymmetricDim()
	rowSums := make([]float64, n)
	for i := range n {
		for j := range n {
			rowSums[i] += ki.At(i, j)
		}
	}
	return floats.Dot(rowSums, z0) / floats.Sum(rowSums)
}

func finiteSym(s *mat.SymDense) bool {
	n := s.SymmetricDim()
	for i := range n {
		for j := i; j < n; j++ {
			v := s.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
