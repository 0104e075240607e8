// Package kernel provides the stationary covariance families used by the GP
// surrogate. All families are tensor products of one-dimensional correlation
// functions, with either a single shared length-scale or one per dimension.
package kernel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrUnknownCovType = errors.New("unknown covariance type")
	ErrThetaLength    = errors.New("theta length must be 1 or the input dimension")
	ErrThetaValue     = errors.New("theta entries must be positive and finite")
)

// Kernel evaluates correlation matrices and their length-scale derivatives.
type Kernel interface {
	// Type of the kernel family
	Type() CovType
	// Cov returns the n1 x n2 correlation matrix between the rows of x1 and x2.
	Cov(x1, x2 mat.Matrix, theta []float64) *mat.Dense
	// CovSym returns the n x n correlation matrix among the rows of x.
	CovSym(x mat.Matrix, theta []float64) *mat.SymDense
	// PartialFactor returns F such that dC/dtheta_k = F ∘ C, with C = CovSym(x, theta).
	// For a shared length-scale k must be 0.
	PartialFactor(x mat.Matrix, theta []float64, k int) *mat.SymDense
}

// one-dimensional correlation family
type family interface {
	covType() CovType
	// correlation at absolute distance r
	corr(r, theta float64) float64
	// derivative of log corr with respect to theta
	dlog(r, theta float64) float64
}

// New returns the kernel for the given family.
func New(t CovType) (Kernel, error) {
	switch t {
	case Gaussian:
		return &tensor{f: gaussian{}}, nil
	case Matern5_2:
		return &tensor{f: matern52{}}, nil
	case Matern3_2:
		return &tensor{f: matern32{}}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownCovType, int(t))
}

// CheckTheta validates theta against the input dimension d.
func CheckTheta(theta []float64, d int) error {
	if len(theta) != 1 && len(theta) != d {
		return fmt.Errorf("%w: len(theta)=%d, d=%d", ErrThetaLength, len(theta), d)
	}
	for i, v := range theta {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: theta[%d]=%v", ErrThetaValue, i, v)
		}
	}
	return nil
}

// tensor product kernel over input dimensions
type tensor struct {
	f family
}

var _ Kernel = (*tensor)(nil)

func (k *tensor) Type() CovType {
	return k.f.covType()
}

func (k *tensor) Cov(x1, x2 mat.Matrix, theta []float64) *mat.Dense {
	n1, d := x1.Dims()
	n2, d2 := x2.Dims()
	if d != d2 {
		panic(mat.ErrShape)
	}
	mustTheta(theta, d)
	c := mat.NewDense(n1, n2, nil)
	for i := range n1 {
		for j := range n2 {
			c.Set(i, j, k.pair(x1, x2, i, j, d, theta))
		}
	}
	return c
}

func (k *tensor) CovSym(x mat.Matrix, theta []float64) *mat.SymDense {
	n, d := x.Dims()
	mustTheta(theta, d)
	c := mat.NewSymDense(n, nil)
	for i := range n {
		c.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			c.SetSym(i, j, k.pair(x, x, i, j, d, theta))
		}
	}
	return c
}

func (k *tensor) PartialFactor(x mat.Matrix, theta []float64, idx int) *mat.SymDense {
	n, d := x.Dims()
	mustTheta(theta, d)
	if idx < 0 || idx >= len(theta) {
		panic(fmt.Sprintf("kernel: hyperparameter index %d out of range [0,%d)", idx, len(theta)))
	}
	shared := len(theta) == 1
	f := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i + 1; j < n; j++ {
			var v float64
			if shared {
				for l := range d {
					v += k.f.dlog(math.Abs(x.At(i, l)-x.At(j, l)), theta[0])
				}
			} else {
				v = k.f.dlog(math.Abs(x.At(i, idx)-x.At(j, idx)), theta[idx])
			}
			f.SetSym(i, j, v)
		}
	}
	return f
}

func (k *tensor) pair(x1, x2 mat.Matrix, i, j, d int, theta []float64) float64 {
	v := 1.0
	for l := range d {
		t := theta[0]
		if len(theta) > 1 {
			t = theta[l]
		}
		v *= k.f.corr(math.Abs(x1.At(i, l)-x2.At(j, l)), t)
	}
	return v
}

func mustTheta(theta []float64, d int) {
	if len(theta) != 1 && len(theta) != d {
		panic(fmt.Sprintf("kernel: len(theta)=%d does not match dimension %d", len(theta), d))
	}
}

// exp(-r^2/theta)
type gaussian struct{}

func (gaussian) covType() CovType { return Gaussian }

func (gaussian) corr(r, theta float64) float64 {
	return math.Exp(-r * r / theta)
}

func (gaussian) dlog(r, theta float64) float64 {
	return r * r / (theta * theta)
}

// (1 + a + a^2/3) exp(-a), a = sqrt(5) r / theta
type matern52 struct{}

func (matern52) covType() CovType { return Matern5_2 }

func (matern52) corr(r, theta float64) float64 {
	a := math.Sqrt(5) * r / theta
	return (1 + a + a*a/3) * math.Exp(-a)
}

func (matern52) dlog(r, theta float64) float64 {
	a := math.Sqrt(5) * r / theta
	return a * a * (1 + a) / (3 * theta * (1 + a + a*a/3))
}

// (1 + a) exp(-a), a = sqrt(3) r / theta
type matern32 struct{}

func (matern32) covType() CovType { return Matern3_2 }

func (matern32) corr(r, theta float64) float64 {
	a := math.Sqrt(3) * r / theta
	return (1 + a) * math.Exp(-a)
}

func (matern32) dlog(r, theta float64) float64 {
	a := math.Sqrt(3) * r / theta
	return a * a / (theta * (1 + a))
}
