package gp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-d-incubation/homgp/pkg/kernel"
	"github.com/llm-d-incubation/homgp/pkg/reps"
)

// numericGradient differentiates LogLik by central differences, theta first.
func numericGradient(t *testing.T, d *reps.Design, theta []float64, g float64, beta0 *float64, k kernel.Kernel) []float64 {
	t.Helper()
	eval := func(th []float64, gg float64) float64 {
		ll, _, err := LogLik(d, th, gg, beta0, k, DefaultEps())
		require.NoError(t, err)
		return ll
	}
	out := make([]float64, 0, len(theta)+1)
	for i := range theta {
		h := 1e-5 * theta[i]
		up := append([]float64(nil), theta...)
		down := append([]float64(nil), theta...)
		up[i] += h
		down[i] -= h
		out = append(out, (eval(up, g)-eval(down, g))/(2*h))
	}
	h := 1e-5 * g
	out = append(out, (eval(theta, g+h)-eval(theta, g-h))/(2*h))
	return out
}

func TestDLogLikFiniteDifference(t *testing.T) {
	d := replicatedDesign(t)
	tests := []struct {
		name  string
		cov   kernel.CovType
		theta []float64
		g     float64
		beta0 *float64
	}{
		{name: "gaussian ok", cov: kernel.Gaussian, theta: []float64{0.5, 0.8}, g: 0.05},
		{name: "gaussian sk", cov: kernel.Gaussian, theta: []float64{0.5, 0.8}, g: 0.05, beta0: ptr(0.5)},
		{name: "gaussian shared", cov: kernel.Gaussian, theta: []float64{0.3}, g: 0.2},
		{name: "matern52 ok", cov: kernel.Matern5_2, theta: []float64{0.4, 1.2}, g: 0.01},
		{name: "matern52 sk", cov: kernel.Matern5_2, theta: []float64{0.4, 1.2}, g: 0.01, beta0: ptr(-0.2)},
		{name: "matern32 ok", cov: kernel.Matern3_2, theta: []float64{0.7, 0.25}, g: 0.1},
		{name: "matern32 shared sk", cov: kernel.Matern3_2, theta: []float64{0.6}, g: 0.3, beta0: ptr(1.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := mustKernel(t, tt.cov)
			_, f, err := LogLik(d, tt.theta, tt.g, tt.beta0, k, DefaultEps())
			require.NoError(t, err)

			grad, err := DLogLik(d, tt.theta, tt.g, f, k, AllComponents)
			require.NoError(t, err)
			want := numericGradient(t, d, tt.theta, tt.g, tt.beta0, k)
			require.Len(t, grad, len(want))
			for i := range want {
				assert.InDelta(t, want[i], grad[i], 1e-4*math.Max(1, math.Abs(want[i])), "component %d", i)
			}

			thetaOnly, err := DLogLik(d, tt.theta, tt.g, f, k, Components{Theta: true})
			require.NoError(t, err)
			assert.Equal(t, grad[:len(tt.theta)], thetaOnly)

			gOnly, err := DLogLik(d, tt.theta, tt.g, f, k, Components{G: true})
			require.NoError(t, err)
			assert.Equal(t, grad[len(tt.theta):], gOnly)
		})
	}
}

func TestDLogLikStaleFactorization(t *testing.T) {
	d := replicatedDesign(t)
	k := mustKernel(t, kernel.Gaussian)
	_, f, err := LogLik(d, []float64{0.5}, 0.1, nil, k, DefaultEps())
	require.NoError(t, err)

	_, err = DLogLik(d, []float64{0.6}, 0.1, f, k, AllComponents)
	assert.ErrorIs(t, err, ErrStaleFactorization)
	_, err = DLogLik(d, []float64{0.5}, 0.2, f, k, AllComponents)
	assert.ErrorIs(t, err, ErrStaleFactorization)
	_, err = DLogLik(d, []float64{0.5}, 0.1, nil, k, AllComponents)
	assert.ErrorIs(t, err, ErrStaleFactorization)

	other, err := reps.Find(d.X0.Slice(0, 3, 0, 2), d.Z0[:3])
	require.NoError(t, err)
	_, err = DLogLik(other, []float64{0.5}, 0.1, f, k, AllComponents)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
