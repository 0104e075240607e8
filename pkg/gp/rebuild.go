package gp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// relative singular value cutoff of the pseudo-inverse
const pinvCutoff = 1e-15

// Rebuild recomputes the cached inverse covariance from the hyperparameters.
// The robust path uses an SVD pseudo-inverse, for near singular covariances
// where the Cholesky route loses precision.
func (m *Model) Rebuild(robust bool) error {
	ki, err := m.inverse(robust)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.ki = ki
	m.mu.Unlock()
	return nil
}

// Strip drops the cached inverse covariance.
func (m *Model) Strip() {
	m.mu.Lock()
	m.ki = nil
	m.mu.Unlock()
}

func (m *Model) inverse(robust bool) (*mat.SymDense, error) {
	k, err := m.kern()
	if err != nil {
		return nil, err
	}
	A := addNugget(k.CovSym(m.X0, m.Theta), m.G, m.Mult, m.Eps)
	if robust {
		return pseudoInverse(A)
	}
	ki, _, err := invertSPD(A)
	return ki, err
}

// pseudoInverse computes V diag(1/s) U' dropping singular values below
// pinvCutoff times the largest one.
func pseudoInverse(A *mat.SymDense) (*mat.SymDense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDThin); !ok {
		return nil, ErrSingular
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	n := len(s)
	cutoff := pinvCutoff * s[0]
	for j := range n {
		scale := 0.0
		if s[j] > cutoff {
			scale = 1 / s[j]
		}
		for i := range n {
			v.Set(i, j, v.At(i, j)*scale)
		}
	}
	var p mat.Dense
	p.Mul(&v, u.T())

	out := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			out.SetSym(i, j, (p.At(i, j)+p.At(j, i))/2)
		}
	}
	if !finiteSym(out) {
		return nil, fmt.Errorf("%w: non-finite result", ErrSingular)
	}
	return out, nil
}
