package gp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/llm-d-incubation/homgp/internal/constants"
	"github.com/llm-d-incubation/homgp/internal/logger"
	"github.com/llm-d-incubation/homgp/pkg/kernel"
	"github.com/llm-d-incubation/homgp/pkg/reps"
)

// Fit outcome
type FitStatus string

const (
	StatusFixed     FitStatus = "fixed"     // nothing to optimize
	StatusConverged FitStatus = "converged" // optimizer met its convergence test
	StatusFallback  FitStatus = "fallback"  // optimizer stopped early, best point kept
)

// boxTransform maps unconstrained y to x in [lo, hi] with
// x = exp(ln lo + (ln hi - ln lo) * sigmoid(y)).
type boxTransform struct {
	logLo []float64
	span  []float64
}

func newBoxTransform(lower, upper []float64) *boxTransform {
	b := &boxTransform{logLo: make([]float64, len(lower)), span: make([]float64, len(lower))}
	for i := range lower {
		b.logLo[i] = math.Log(lower[i])
		b.span[i] = math.Log(upper[i]) - b.logLo[i]
	}
	return b
}

func (b *boxTransform) toBox(y []float64) []float64 {
	x := make([]float64, len(y))
	for i, v := range y {
		x[i] = math.Exp(b.logLo[i] + b.span[i]*sigmoid(v))
	}
	return x
}

func (b *boxTransform) fromBox(x []float64) []float64 {
	const edge = 1e-10
	y := make([]float64, len(x))
	for i, v := range x {
		if b.span[i] == 0 {
			continue
		}
		s := (math.Log(v) - b.logLo[i]) / b.span[i]
		s = math.Min(math.Max(s, edge), 1-edge)
		y[i] = math.Log(s / (1 - s))
	}
	return y
}

// chain converts a gradient in x into a gradient in y, in place.
func (b *boxTransform) chain(y, x, grad []float64) {
	for i := range grad {
		s := sigmoid(y[i])
		grad[i] *= x[i] * b.span[i] * s * (1 - s)
	}
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

// bestTracker keeps the highest finite log-likelihood seen and where.
type bestTracker struct {
	logLik float64
	arg    []float64
}

func newBestTracker() *bestTracker {
	return &bestTracker{logLik: math.Inf(-1)}
}

func (b *bestTracker) observe(ll float64, x []float64) {
	if math.IsNaN(ll) || math.IsInf(ll, 0) || ll <= b.logLik {
		return
	}
	b.logLik = ll
	b.arg = append(b.arg[:0], x...)
}

func (b *bestTracker) found() bool {
	return b.arg != nil
}

// problem is the likelihood over the free hyperparameters.
type problem struct {
	design *reps.Design
	kernel kernel.Kernel
	eps    float64
	beta0  *float64
	theta  Param
	g      Param
}

func (p *problem) free(pick func(Param) []float64) []float64 {
	var out []float64
	if !p.theta.IsFixed() {
		out = append(out, pick(p.theta)...)
	}
	if !p.g.IsFixed() {
		out = append(out, pick(p.g)...)
	}
	return out
}

func (p *problem) lower() []float64 { return p.free(func(q Param) []float64 { return q.Lower }) }
func (p *problem) upper() []float64 { return p.free(func(q Param) []float64 { return q.Upper }) }
func (p *problem) start() []float64 { return p.free(func(q Param) []float64 { return q.Init }) }

func (p *problem) components() Components {
	return Components{Theta: !p.theta.IsFixed(), G: !p.g.IsFixed()}
}

// unpack splits a free vector into full theta and g.
func (p *problem) unpack(x []float64) ([]float64, float64) {
	theta := p.theta.Start()
	pos := 0
	if !p.theta.IsFixed() {
		theta = x[:p.theta.Len()]
		pos = p.theta.Len()
	}
	g := p.g.Start()[0]
	if !p.g.IsFixed() {
		g = x[pos]
	}
	return append([]float64(nil), theta...), g
}

// evaluate returns the log-likelihood and its gradient over the free vector.
func (p *problem) evaluate(x []float64) (float64, []float64, error) {
	theta, g := p.unpack(x)
	ll, f, err := LogLik(p.design, theta, g, p.beta0, p.kernel, p.eps)
	if err != nil {
		return math.Inf(-1), nil, err
	}
	grad, err := DLogLik(p.design, theta, g, f, p.kernel, p.components())
	if err != nil {
		return math.Inf(-1), nil, err
	}
	for _, v := range grad {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(-1), nil, fmt.Errorf("%w: non-finite gradient", ErrNotPositiveDefinite)
		}
	}
	return ll, grad, nil
}

// objective is the negated log-likelihood in unconstrained coordinates. The
// minimizer asks for the value and the gradient separately at the same point,
// so the last evaluation is memoized.
type objective struct {
	p    *problem
	box  *boxTransform
	best *bestTracker

	lastY    []float64
	lastF    float64
	lastGrad []float64
}

func (o *objective) eval(y []float64) {
	if o.lastY != nil && floats.Equal(o.lastY, y) {
		return
	}
	o.lastY = append(o.lastY[:0], y...)
	x := o.box.toBox(y)
	ll, grad, err := o.p.evaluate(x)
	if err != nil {
		logger.Log.Debugf("infeasible point %v: %v", x, err)
		o.lastF = math.Inf(1)
		o.lastGrad = nil
		return
	}
	o.best.observe(ll, x)
	o.box.chain(y, x, grad)
	floats.Scale(-1, grad)
	o.lastF = -ll
	o.lastGrad = grad
}

func (o *objective) Func(y []float64) float64 {
	o.eval(y)
	return o.lastF
}

func (o *objective) Grad(grad, y []float64) {
	o.eval(y)
	if o.lastGrad == nil {
		for i := range grad {
			grad[i] = 0
		}
		return
	}
	copy(grad, o.lastGrad)
}

// searchResult is the chosen free vector and how it was reached.
type searchResult struct {
	x           []float64
	iterations  int
	evaluations int
	status      FitStatus
	msg         string
}

// candidates lists starting points: the requested start, then points with a
// larger noise ratio and shorter length-scales for better conditioning.
func (p *problem) candidates() [][]float64 {
	starts := [][]float64{p.start()}
	if !p.g.IsFixed() {
		hiG := p.g.Upper[0]
		mid := math.Sqrt(p.g.Init[0] * hiG)
		for _, g := range []float64{mid, hiG} {
			c := append([]float64(nil), p.start()...)
			c[len(c)-1] = g
			starts = append(starts, c)
		}
	}
	if !p.theta.IsFixed() {
		c := append([]float64(nil), p.start()...)
		copy(c, p.theta.Lower)
		if !p.g.IsFixed() {
			c[len(c)-1] = p.g.Upper[0]
		}
		starts = append(starts, c)
	}
	return starts
}

// search maximizes the likelihood over the free hyperparameters with L-BFGS.
// When the minimizer stops without converging the best point seen is used.
func (p *problem) search(maxIt int, factr, pgtol float64) (*searchResult, error) {
	box := newBoxTransform(p.lower(), p.upper())
	best := newBestTracker()
	obj := &objective{p: p, box: box, best: best}

	var y0 []float64
	for i, x0 := range p.candidates() {
		y := box.fromBox(x0)
		if obj.Func(y); !math.IsInf(obj.lastF, 1) {
			if i > 0 {
				logger.Log.Warnf("initial point infeasible, starting from %v", box.toBox(y))
			}
			y0 = y
			break
		}
	}
	if y0 == nil {
		return nil, ErrNoFeasiblePoint
	}

	// the starting point counts as the first major iteration
	tol := factr * constants.MachineEpsilon
	settings := &optimize.Settings{
		MajorIterations:   maxIt + 1,
		GradientThreshold: pgtol,
		Converger: &optimize.FunctionConverge{
			Absolute:   tol,
			Relative:   tol,
			Iterations: 1,
		},
	}
	res, err := optimize.Minimize(optimize.Problem{Func: obj.Func, Grad: obj.Grad}, y0, settings, &optimize.LBFGS{})

	out := &searchResult{}
	if res != nil {
		out.iterations = max(res.Stats.MajorIterations-1, 0)
		out.evaluations = res.Stats.FuncEvaluations
	}
	if err == nil && res != nil && converged(res.Status) && !math.IsInf(res.F, 0) {
		out.x = box.toBox(res.X)
		out.status = StatusConverged
		out.msg = res.Status.String()
		return out, nil
	}

	if !best.found() {
		return nil, ErrNoFeasiblePoint
	}
	reason := "unknown"
	switch {
	case err != nil:
		reason = err.Error()
	case res != nil:
		reason = res.Status.String()
	}
	logger.Log.Warnf("optimizer did not converge (%s), using best log-likelihood %v", reason, best.logLik)
	out.x = append([]float64(nil), best.arg...)
	out.status = StatusFallback
	out.msg = fmt.Sprintf(constants.MsgBestSoFarFmt, reason)
	return out, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionThreshold, optimize.FunctionConvergence,
		optimize.GradientThreshold, optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}
