package gp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/llm-d-incubation/homgp/internal/constants"
	"github.com/llm-d-incubation/homgp/pkg/bounds"
	"github.com/llm-d-incubation/homgp/pkg/kernel"
	"github.com/llm-d-incubation/homgp/pkg/reps"
)

func boundedOptions(lower, upper float64) *FitOptions {
	o := DefaultFitOptions()
	o.Lower = []float64{lower}
	o.Upper = []float64{upper}
	return o
}

// initLogLik is the log-likelihood at the resolved starting point of a fit.
func initLogLik(t *testing.T, m *Model) float64 {
	t.Helper()
	k := mustKernel(t, m.CovType)
	theta := m.UsedArgs.Init.Theta
	if theta == nil {
		theta = m.UsedArgs.Known.Theta
	}
	g := m.UsedArgs.Init.G
	if g == nil {
		g = m.UsedArgs.Known.G
	}
	require.NotNil(t, theta)
	require.NotNil(t, g)
	ll, _, err := LogLik(m.Design(), theta, *g, m.UsedArgs.Known.Beta0, k, m.Eps)
	require.NoError(t, err)
	return ll
}

func assertWithin(t *testing.T, lower, upper, v []float64) {
	t.Helper()
	require.Len(t, v, len(lower))
	for i := range v {
		assert.GreaterOrEqual(t, v[i], lower[i])
		assert.LessOrEqual(t, v[i], upper[i])
	}
}

func TestFitAllKnown(t *testing.T) {
	d := replicatedDesign(t)
	o := DefaultFitOptions()
	o.Known = Known{Theta: []float64{0.5, 0.8}, G: ptr(0.05)}

	m, err := FitDesign(d, o)
	require.NoError(t, err)
	assert.Equal(t, StatusFixed, m.Status)
	assert.Equal(t, constants.MsgAllKnown, m.Msg)
	assert.Equal(t, 0, m.NitOpt)
	assert.Equal(t, OK, m.TrendType)
	assert.Equal(t, []float64{0.5, 0.8}, m.Theta)
	assert.Equal(t, 0.05, m.G)
	assert.True(t, m.HasKi())

	ll, f, err := LogLik(d, m.Theta, m.G, nil, mustKernel(t, kernel.Gaussian), DefaultEps())
	require.NoError(t, err)
	assert.InDelta(t, ll, m.LL, 1e-12)
	assert.InDelta(t, f.Beta0, m.Beta0, 1e-12)
	assert.InDelta(t, f.NuHat(d.N()), m.NuHat, 1e-12)
}

func TestFitKnownTrend(t *testing.T) {
	d := replicatedDesign(t)
	o := DefaultFitOptions()
	o.Known = Known{Theta: []float64{0.5}, G: ptr(0.05), Beta0: ptr(0.25)}

	m, err := FitDesign(d, o)
	require.NoError(t, err)
	assert.Equal(t, SK, m.TrendType)
	assert.Equal(t, 0.25, m.Beta0)
}

func TestFitDenseSine(t *testing.T) {
	X, Z := sineDesign(12)
	m, err := Fit(X, Z, boundedOptions(0.1, 10))
	require.NoError(t, err)

	assert.Contains(t, []FitStatus{StatusConverged, StatusFallback}, m.Status)
	assertWithin(t, []float64{0.1}, []float64{10}, m.Theta)
	assert.Less(t, m.G, 1e-3)
	assert.GreaterOrEqual(t, m.G, DefaultGMin())
	assert.Greater(t, m.LL, initLogLik(t, m))
	assert.Positive(t, m.Evals)

	p, err := m.Predict(mat.NewDense(1, 1, []float64{math.Pi / 4}), nil)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2/2, p.Mean[0], 0.01)
	assert.Less(t, p.SD2[0], 1e-3)
	assert.GreaterOrEqual(t, p.SD2[0], 0.0)
}

func TestFitFivePointSine(t *testing.T) {
	X, Z := sineDesign(5)
	m, err := Fit(X, Z, boundedOptions(0.1, 10))
	require.NoError(t, err)

	assertWithin(t, []float64{0.1}, []float64{10}, m.Theta)
	assertWithin(t, []float64{DefaultGMin()}, []float64{constants.DefaultGMax}, []float64{m.G})
	assert.GreaterOrEqual(t, m.LL, initLogLik(t, m)-1e-9)
	assert.Positive(t, m.NuHat)

	p, err := m.Predict(mat.NewDense(3, 1, []float64{math.Pi / 4, 1, 5}), nil)
	require.NoError(t, err)
	for i := range p.Mean {
		assert.False(t, math.IsNaN(p.Mean[i]) || math.IsInf(p.Mean[i], 0))
		assert.GreaterOrEqual(t, p.SD2[i], 0.0)
		assert.InDelta(t, m.NuHat*m.G, p.Nugs[i], 1e-15)
	}
}

func TestFitIterationLimit(t *testing.T) {
	X, Z := sineDesign(12)
	o := boundedOptions(0.1, 10)
	o.MaxIt = 1

	m, err := Fit(X, Z, o)
	require.NoError(t, err)
	assert.Equal(t, StatusFallback, m.Status)
	assert.Contains(t, m.Msg, "use best value so far")
	assert.LessOrEqual(t, m.NitOpt, 1)
	assert.GreaterOrEqual(t, m.LL, initLogLik(t, m))
}

func TestFitKnownTheta(t *testing.T) {
	d := replicatedDesign(t)
	o := DefaultFitOptions()
	o.Known.Theta = []float64{0.5, 0.8}

	m, err := FitDesign(d, o)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.8}, m.Theta)
	assert.NotEqual(t, StatusFixed, m.Status)
	assert.GreaterOrEqual(t, m.LL, initLogLik(t, m)-1e-9)
}

func TestFitReplicateNoiseInit(t *testing.T) {
	d := replicatedDesign(t)
	m, err := FitDesign(d, nil)
	require.NoError(t, err)

	ss, err := reps.WithinSS(d.Mult, d.Z, d.Z0)
	require.NoError(t, err)
	var sum float64
	var count int
	for i, mult := range d.Mult {
		if mult > 2 {
			sum += ss[i] / float64(mult)
			count++
		}
	}
	require.Equal(t, 1, count)
	want := sum / float64(count) / stat.Variance(d.Z0, nil)

	require.NotNil(t, m.UsedArgs.Init.G)
	assert.InDelta(t, want, *m.UsedArgs.Init.G, 1e-12)
}

func TestFitDefaultNoiseInit(t *testing.T) {
	X, Z := sineDesign(8)
	m, err := Fit(X, Z, boundedOptions(0.1, 10))
	require.NoError(t, err)
	require.NotNil(t, m.UsedArgs.Init.G)
	assert.Equal(t, constants.DefaultGInit, *m.UsedArgs.Init.G)
}

func TestFitAutomaticBounds(t *testing.T) {
	d := replicatedDesign(t)
	m, err := FitDesign(d, nil)
	require.NoError(t, err)

	auto, err := bounds.Auto(d.X0, kernel.Gaussian)
	require.NoError(t, err)
	assert.Equal(t, auto.Lower, m.UsedArgs.Lower)
	assert.Equal(t, auto.Upper, m.UsedArgs.Upper)
	for i := range auto.Lower {
		assert.InDelta(t, math.Sqrt(auto.Lower[i]*auto.Upper[i]), m.UsedArgs.Init.Theta[i], 1e-12)
	}
	assertWithin(t, auto.Lower, auto.Upper, m.Theta)
}

func TestFitDiscardKi(t *testing.T) {
	d := replicatedDesign(t)
	o := DefaultFitOptions()
	o.Known = Known{Theta: []float64{0.5, 0.8}, G: ptr(0.05)}
	o.Settings.DiscardKi = true

	m, err := FitDesign(d, o)
	require.NoError(t, err)
	assert.False(t, m.HasKi())

	_, err = m.Predict(d.X0, nil)
	require.NoError(t, err)
	assert.True(t, m.HasKi())
}

func TestFitValidation(t *testing.T) {
	X, Z := replicatedRaw()
	tests := []struct {
		name   string
		z      []float64
		mutate func(o *FitOptions)
		want   error
	}{
		{name: "response length", z: Z[:5], want: ErrDimensionMismatch},
		{name: "lower above upper", mutate: func(o *FitOptions) {
			o.Lower, o.Upper = []float64{2}, []float64{1}
		}, want: ErrInvalidBounds},
		{name: "bounds length mismatch", mutate: func(o *FitOptions) {
			o.Lower, o.Upper = []float64{0.1}, []float64{1, 2}
		}, want: ErrInvalidBounds},
		{name: "bounds dimension", mutate: func(o *FitOptions) {
			o.Lower, o.Upper = []float64{0.1, 0.1, 0.1}, []float64{1, 1, 1}
		}, want: ErrDimensionMismatch},
		{name: "init dimension", mutate: func(o *FitOptions) {
			o.Lower, o.Upper = []float64{0.1}, []float64{1}
			o.Init.Theta = []float64{0.5, 0.5}
		}, want: ErrDimensionMismatch},
		{name: "known theta dimension", mutate: func(o *FitOptions) {
			o.Known.Theta = []float64{1, 1, 1}
		}, want: ErrDimensionMismatch},
		{name: "known g", mutate: func(o *FitOptions) {
			o.Known.G = ptr(0.0)
		}, want: ErrInvalidInput},
		{name: "g bounds", mutate: func(o *FitOptions) {
			o.NoiseControl.GBounds = [2]float64{1, 0.5}
		}, want: ErrInvalidBounds},
		{name: "negative eps", mutate: func(o *FitOptions) {
			o.Eps = ptr(-1.0)
		}, want: ErrInvalidInput},
		{name: "cov type", mutate: func(o *FitOptions) {
			o.CovType = kernel.CovType(42)
		}, want: kernel.ErrUnknownCovType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultFitOptions()
			if tt.mutate != nil {
				tt.mutate(o)
			}
			z := Z
			if tt.z != nil {
				z = tt.z
			}
			_, err := Fit(X, z, o)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
