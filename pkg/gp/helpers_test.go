package gp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/llm-d-incubation/homgp/internal/logger"
	"github.com/llm-d-incubation/homgp/pkg/kernel"
	"github.com/llm-d-incubation/homgp/pkg/reps"
)

func init() {
	logger.Log = zap.NewNop().Sugar()
}

// replicatedRaw is a 2-d design of 12 runs over 7 unique locations; the
// location (0.35, 0.40) is observed four times.
func replicatedRaw() (*mat.Dense, []float64) {
	X := mat.NewDense(12, 2, []float64{
		0.05, 0.10,
		0.20, 0.85,
		0.35, 0.40,
		0.50, 0.65,
		0.65, 0.15,
		0.80, 0.90,
		0.95, 0.30,
		0.20, 0.85,
		0.35, 0.40,
		0.35, 0.40,
		0.65, 0.15,
		0.35, 0.40,
	})
	noise := []float64{0.03, -0.02, 0.05, 0.01, -0.04, 0.02, -0.01, 0.04, -0.03, 0.02, 0.03, -0.06}
	Z := make([]float64, 12)
	for i := range Z {
		Z[i] = math.Sin(3*X.At(i, 0)) + math.Cos(2*X.At(i, 1)) + noise[i]
	}
	return X, Z
}

func replicatedDesign(t *testing.T) *reps.Design {
	t.Helper()
	X, Z := replicatedRaw()
	d, err := reps.Find(X, Z)
	require.NoError(t, err)
	require.Equal(t, 7, d.Unique())
	return d
}

// sineDesign is n equally spaced noiseless sine observations on [0, 2pi].
func sineDesign(n int) (*mat.Dense, []float64) {
	X := mat.NewDense(n, 1, nil)
	Z := make([]float64, n)
	for i := range n {
		x := 2 * math.Pi * float64(i) / float64(n-1)
		X.Set(i, 0, x)
		Z[i] = math.Sin(x)
	}
	return X, Z
}

func mustKernel(t *testing.T, c kernel.CovType) kernel.Kernel {
	t.Helper()
	k, err := kernel.New(c)
	require.NoError(t, err)
	return k
}

func ptr[T any](v T) *T {
	return &v
}

func maxAbsDiff(a, b mat.Matrix) float64 {
	r, c := a.Dims()
	var m float64
	for i := range r {
		for j := range c {
			m = math.Max(m, math.Abs(a.At(i, j)-b.At(i, j)))
		}
	}
	return m
}
