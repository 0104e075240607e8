package gp

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/llm-d-incubation/homgp/internal/constants"
	"github.com/llm-d-incubation/homgp/internal/logger"
	"github.com/llm-d-incubation/homgp/pkg/bounds"
	"github.com/llm-d-incubation/homgp/pkg/kernel"
	"github.com/llm-d-incubation/homgp/pkg/reps"
)

// Fit collapses replicated rows of X and fits the model by maximum likelihood.
func Fit(X mat.Matrix, Z []float64, opts *FitOptions) (*Model, error) {
	d, err := reps.Find(X, Z)
	if err != nil {
		return nil, err
	}
	return FitDesign(d, opts)
}

// FitDesign fits the model to an already collapsed design. Hyperparameters in
// opts.Known are held fixed; the others are estimated.
func FitDesign(d *reps.Design, opts *FitOptions) (*Model, error) {
	start := time.Now()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	o := opts.resolved()
	eps := *o.Eps
	if eps < 0 || math.IsNaN(eps) {
		return nil, fmt.Errorf("%w: eps=%v", ErrInvalidInput, eps)
	}
	k, err := kernel.New(o.CovType)
	if err != nil {
		return nil, err
	}

	thetaParam, used, err := resolveTheta(d, o)
	if err != nil {
		return nil, err
	}
	gParam, err := resolveG(d, o)
	if err != nil {
		return nil, err
	}
	used.NoiseControl = o.NoiseControl
	used.Known = o.Known
	used.CovType = o.CovType
	used.MaxIt = o.MaxIt
	used.Eps = eps
	used.Settings = o.Settings
	if !gParam.IsFixed() {
		g0 := gParam.Init[0]
		used.Init.G = &g0
	}

	trend := OK
	if o.Known.Beta0 != nil {
		trend = SK
	}

	p := &problem{design: d, kernel: k, eps: eps, beta0: o.Known.Beta0, theta: thetaParam, g: gParam}

	var res *searchResult
	if thetaParam.IsFixed() && gParam.IsFixed() {
		res = &searchResult{status: StatusFixed, msg: constants.MsgAllKnown}
	} else {
		logger.Log.Debugf("fitting %s model on %d locations (%d observations), start %v",
			o.CovType, d.Unique(), d.N(), p.start())
		if res, err = p.search(o.MaxIt, o.Settings.Factr, o.Settings.Pgtol); err != nil {
			return nil, err
		}
	}

	theta, g := p.unpack(res.x)
	ll, f, err := LogLik(d, theta, g, o.Known.Beta0, k, eps)
	if err != nil {
		return nil, fmt.Errorf("final factorization at theta=%v g=%v: %w", theta, g, err)
	}

	m := &Model{
		X0:        d.X0,
		Z0:        d.Z0,
		Z:         d.Z,
		Mult:      d.Mult,
		Theta:     theta,
		G:         g,
		Beta0:     f.Beta0,
		NuHat:     f.NuHat(d.N()),
		CovType:   o.CovType,
		TrendType: trend,
		LL:        ll,
		NitOpt:    res.iterations,
		Evals:     res.evaluations,
		Msg:       res.msg,
		Status:    res.status,
		Eps:       eps,
		UsedArgs:  used,
		kernel:    k,
	}
	if !o.Settings.DiscardKi {
		m.ki = f.Ki
	}
	m.Time = time.Since(start)
	logger.Log.Debugf("fit done: theta=%v g=%v ll=%v (%s)", theta, g, ll, res.msg)
	return m, nil
}

// resolveTheta fixes or bounds the length-scales and picks their start.
func resolveTheta(d *reps.Design, o *FitOptions) (Param, UsedArgs, error) {
	var used UsedArgs
	if o.Known.Theta != nil {
		if err := kernel.CheckTheta(o.Known.Theta, d.Dim()); err != nil {
			return Param{}, used, fmt.Errorf("%w: known theta: %v", ErrDimensionMismatch, err)
		}
		return Fixed(o.Known.Theta), used, nil
	}

	lower, upper := o.Lower, o.Upper
	init := o.Init.Theta
	if lower == nil || upper == nil {
		auto, err := bounds.Auto(d.X0, o.CovType)
		if err != nil {
			return Param{}, used, fmt.Errorf("%w: automatic bounds: %v", ErrInvalidBounds, err)
		}
		if lower == nil {
			lower = auto.Lower
		}
		if upper == nil {
			upper = auto.Upper
		}
		if init == nil {
			init = make([]float64, len(lower))
			for i := range init {
				init[i] = math.Sqrt(lower[i] * upper[i])
			}
		}
	}
	if len(lower) != len(upper) {
		return Param{}, used, fmt.Errorf("%w: len(lower)=%d, len(upper)=%d", ErrInvalidBounds, len(lower), len(upper))
	}
	if len(lower) != 1 && len(lower) != d.Dim() {
		return Param{}, used, fmt.Errorf("%w: len(lower)=%d, input dimension %d", ErrDimensionMismatch, len(lower), d.Dim())
	}
	if init == nil {
		init = make([]float64, len(lower))
		for i := range init {
			init[i] = 0.9*lower[i] + 0.1*upper[i]
		}
	}
	if len(init) != len(lower) {
		return Param{}, used, fmt.Errorf("%w: len(init theta)=%d, len(lower)=%d", ErrDimensionMismatch, len(init), len(lower))
	}
	p, err := Free(lower, upper, init)
	if err != nil {
		return Param{}, used, err
	}
	used.Lower = p.Lower
	used.Upper = p.Upper
	used.Init.Theta = p.Init
	return p, used, nil
}

// resolveG fixes or bounds the noise ratio and picks its start.
func resolveG(d *reps.Design, o *FitOptions) (Param, error) {
	gMin, gMax := o.NoiseControl.GBounds[0], o.NoiseControl.GBounds[1]
	if o.Known.G != nil {
		g := *o.Known.G
		if !(g > 0) || math.IsInf(g, 0) {
			return Param{}, fmt.Errorf("%w: known g=%v must be positive", ErrInvalidInput, g)
		}
		return Fixed([]float64{g}), nil
	}
	if !(gMin > 0) || gMin > gMax {
		return Param{}, fmt.Errorf("%w: g bounds [%v, %v]", ErrInvalidBounds, gMin, gMax)
	}
	g0 := initialG(d)
	if o.Init.G != nil {
		g0 = *o.Init.G
	}
	return Free([]float64{gMin}, []float64{gMax}, []float64{g0})
}

// initialG estimates the noise ratio from locations with more than two
// replicates: mean within-replicate variance over the variance of Z0.
func initialG(d *reps.Design) float64 {
	ss, err := reps.WithinSS(d.Mult, d.Z, d.Z0)
	if err != nil {
		return constants.DefaultGInit
	}
	var sum float64
	var count int
	for i, m := range d.Mult {
		if m > constants.NoiseInitMinReplicates {
			sum += ss[i] / float64(m)
			count++
		}
	}
	if count == 0 || d.Unique() < 2 {
		return constants.DefaultGInit
	}
	g := sum / float64(count) / stat.Variance(d.Z0, nil)
	if !(g > 0) || math.IsInf(g, 0) {
		return constants.DefaultGInit
	}
	return g
}
