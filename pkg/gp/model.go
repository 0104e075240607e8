// Package gp fits and queries a Gaussian process surrogate with homoskedastic
// noise over replicated designs.
//
// The noise enters as a ratio g to the process variance, so the covariance of
// the averaged responses at unique locations is nu * (C + diag(eps + g/mult)).
// The process variance nu is profiled out of the likelihood.
package gp

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/llm-d-incubation/homgp/pkg/kernel"
	"github.com/llm-d-incubation/homgp/pkg/reps"
)

// Trend mode
type TrendType string

const (
	SK TrendType = "SK" // simple kriging, trend given
	OK TrendType = "OK" // ordinary kriging, trend estimated
)

// Model is a fitted GP. The cached inverse covariance is derived data: it can
// be dropped with Strip and is rebuilt on demand. Predictions on one model may
// run concurrently.
type Model struct {
	mu sync.RWMutex

	X0   *mat.Dense // unique design locations
	Z0   []float64  // averaged responses at X0
	Z    []float64  // all responses grouped by location
	Mult []int      // replicates per location

	Theta     []float64      // kernel length-scales
	G         float64        // noise-to-signal ratio
	Beta0     float64        // trend
	NuHat     float64        // process variance
	CovType   kernel.CovType // kernel family
	TrendType TrendType      // SK or OK
	Eps       float64        // diagonal jitter

	LL       float64       // log-likelihood at the estimate
	NitOpt   int           // optimizer iterations
	Evals    int           // likelihood evaluations by the optimizer
	Msg      string        // optimizer termination message
	Status   FitStatus     // how the estimate was reached
	Time     time.Duration // wall-clock fit time
	UsedArgs UsedArgs      // resolved fit arguments

	ki     *mat.SymDense // inverse of C + diag(eps + g/mult), not scaled by NuHat
	kernel kernel.Kernel
}

// Design returns the replicated design the model was fitted on.
func (m *Model) Design() *reps.Design {
	return &reps.Design{X0: m.X0, Z0: m.Z0, Z: m.Z, Mult: m.Mult}
}

// Ki returns the cached inverse of C + diag(eps + g/mult), not scaled by NuHat,
// or nil when it has been stripped. The result must not be modified.
func (m *Model) Ki() *mat.SymDense {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ki
}

// HasKi reports whether the inverse covariance is cached.
func (m *Model) HasKi() bool {
	return m.Ki() != nil
}

func (m *Model) kern() (kernel.Kernel, error) {
	if m.kernel != nil {
		return m.kernel, nil
	}
	return kernel.New(m.CovType)
}

// Summary is a compact view of a fitted model.
type Summary struct {
	CovType   kernel.CovType `json:"covType"`
	TrendType TrendType      `json:"trendType"`
	Theta     []float64      `json:"theta"`
	G         float64        `json:"g"`
	Beta0     float64        `json:"beta0"`
	NuHat     float64        `json:"nuHat"`
	LL        float64        `json:"ll"`
	NitOpt    int            `json:"nitOpt"`
	Msg       string         `json:"msg"`
	Status    FitStatus      `json:"status"`
	Unique    int            `json:"unique"`
	N         int            `json:"n"`
	Time      string         `json:"time"`
	HasKi     bool           `json:"hasKi"`
}

func (m *Model) Summary() Summary {
	n, _ := m.X0.Dims()
	return Summary{
		CovType:   m.CovType,
		TrendType: m.TrendType,
		Theta:     append([]float64(nil), m.Theta...),
		G:         m.G,
		Beta0:     m.Beta0,
		NuHat:     m.NuHat,
		LL:        m.LL,
		NitOpt:    m.NitOpt,
		Msg:       m.Msg,
		Status:    m.Status,
		Unique:    n,
		N:         len(m.Z),
		Time:      m.Time.String(),
		HasKi:     m.HasKi(),
	}
}
