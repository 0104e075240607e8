// Package bounds derives default length-scale bounds from the spread of a design.
package bounds

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/llm-d-incubation/homgp/internal/constants"
	"github.com/llm-d-incubation/homgp/internal/logger"
	"github.com/llm-d-incubation/homgp/pkg/kernel"
)

var ErrInsufficientDesign = errors.New("at least two distinct design locations are required")

// Bounds on kernel length-scales, one entry per input dimension
type Bounds struct {
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// Options for automatic bounds
type Options struct {
	MinCor float64 // correlation at the small representative distance
	MaxCor float64 // correlation at the large representative distance
	P      float64 // quantile of pairwise distances (and 1-P for the large one)
}

func DefaultOptions() Options {
	return Options{
		MinCor: constants.DefaultMinCorrelation,
		MaxCor: constants.DefaultMaxCorrelation,
		P:      constants.DefaultDistanceQuantile,
	}
}

// Auto computes bounds for X0 with default options.
func Auto(X0 mat.Matrix, covType kernel.CovType) (*Bounds, error) {
	return AutoWithOptions(X0, covType, DefaultOptions())
}

// AutoWithOptions picks length-scales so that the correlation at the P quantile
// of pairwise distances (inputs rescaled to [0,1]) equals MinCor, and the one
// at the 1-P quantile equals MaxCor. Results are mapped back to input units.
func AutoWithOptions(X0 mat.Matrix, covType kernel.CovType, opts Options) (*Bounds, error) {
	if !(opts.MinCor > 0 && opts.MinCor < opts.MaxCor && opts.MaxCor < 1) {
		return nil, fmt.Errorf("invalid correlation levels min=%v max=%v", opts.MinCor, opts.MaxCor)
	}
	if !(opts.P > 0 && opts.P < 0.5) {
		return nil, fmt.Errorf("invalid quantile %v", opts.P)
	}

	n, d := X0.Dims()
	if n < 2 {
		return nil, ErrInsufficientDesign
	}
	scaled, ranges := rescale(X0)

	dists := make([]float64, 0, n*(n-1)/2)
	for i := range n {
		for j := i + 1; j < n; j++ {
			var s float64
			for l := range d {
				diff := scaled.At(i, l) - scaled.At(j, l)
				s += diff * diff
			}
			dists = append(dists, s)
		}
	}
	sort.Float64s(dists)
	lowDist := stat.Quantile(opts.P, stat.LinInterp, dists, nil)
	highDist := stat.Quantile(1-opts.P, stat.LinInterp, dists, nil)
	if !(lowDist > 0) {
		return nil, ErrInsufficientDesign
	}

	b := &Bounds{Lower: make([]float64, d), Upper: make([]float64, d)}
	if covType == kernel.Gaussian {
		thetaMin := -lowDist / math.Log(opts.MinCor)
		thetaMax := -highDist / math.Log(opts.MaxCor)
		for l, r := range ranges {
			b.Lower[l] = thetaMin * r * r
			b.Upper[l] = thetaMax * r * r
		}
		return b, nil
	}

	k, err := kernel.New(covType)
	if err != nil {
		return nil, err
	}
	thetaMin, ok := maternRoot(k, d, lowDist, opts.MinCor)
	if !ok {
		logger.Log.Warnf("automatic lower bound search failed for %s, using %v", covType, constants.FallbackThetaMin)
		thetaMin = constants.FallbackThetaMin
	}
	thetaMax, ok := maternRoot(k, d, highDist, opts.MaxCor)
	if !ok {
		thetaMax = constants.FallbackThetaMax
	}
	thetaMax = math.Max(1, thetaMax)
	for l, r := range ranges {
		b.Lower[l] = thetaMin * r
		b.Upper[l] = thetaMax * r
	}
	return b, nil
}

// maternRoot finds theta such that the correlation between the origin and a
// point at squared distance dist, spread evenly over d dimensions, equals target.
func maternRoot(k kernel.Kernel, d int, dist, target float64) (float64, bool) {
	origin := mat.NewDense(1, d, nil)
	point := mat.NewDense(1, d, nil)
	for l := range d {
		point.Set(0, l, math.Sqrt(dist/float64(d)))
	}
	corr := func(theta float64) float64 {
		return k.Cov(point, origin, []float64{theta}).At(0, 0)
	}
	theta, err := CorrelationRoot(math.Sqrt(constants.MachineEpsilon), constants.MaternSearchMax, target, corr)
	if err != nil {
		logger.Log.Debugf("%s length-scale search at squared distance %v: %v", k.Type(), dist, err)
		return 0, false
	}
	return theta, true
}

// rescale maps each column to [0,1]; constant columns keep a unit range.
func rescale(X mat.Matrix) (*mat.Dense, []float64) {
	n, d := X.Dims()
	out := mat.NewDense(n, d, nil)
	ranges := make([]float64, d)
	for l := range d {
		col := mat.Col(nil, l, X)
		lo, hi := col[0], col[0]
		for _, v := range col {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		r := hi - lo
		if r == 0 {
			r = 1
		}
		ranges[l] = r
		for i, v := range col {
			out.Set(i, l, (v-lo)/r)
		}
	}
	return out, ranges
}
