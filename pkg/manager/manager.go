package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/llm-d-incubation/homgp/internal/constants"
	"github.com/llm-d-incubation/homgp/internal/logger"
	"github.com/llm-d-incubation/homgp/internal/metrics"
	"github.com/llm-d-incubation/homgp/pkg/config"
	"github.com/llm-d-incubation/homgp/pkg/gp"
)

var ErrModelNotFound = errors.New("model not found")

// A fitted model held by the manager
type Entry struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	Model   *gp.Model `json:"-"`
}

// Named view of an entry
type EntrySummary struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Created time.Time  `json:"created"`
	Summary gp.Summary `json:"summary"`
}

func (e *Entry) Summary() EntrySummary {
	return EntrySummary{ID: e.ID, Name: e.Name, Created: e.Created, Summary: e.Model.Summary()}
}

// Manager is a registry of fitted models by name
type Manager struct {
	mu      sync.RWMutex
	models  map[string]*Entry
	emitter *metrics.MetricsEmitter
}

// NewManager creates an empty registry; a nil emitter disables metrics.
func NewManager(emitter *metrics.MetricsEmitter) *Manager {
	return &Manager{
		models:  make(map[string]*Entry),
		emitter: emitter,
	}
}

// Fit fits a model to the specification and stores it under name, replacing
// any model of the same name.
func (m *Manager) Fit(ctx context.Context, name string, spec *config.FitSpec) (*Entry, error) {
	model, err := m.FitModel(ctx, spec)
	if err != nil {
		return nil, err
	}
	return m.Add(ctx, name, model), nil
}

// FitModel fits a model without storing it.
func (m *Manager) FitModel(ctx context.Context, spec *config.FitSpec) (*gp.Model, error) {
	start := time.Now()
	model, err := gp.FitFromSpec(spec)
	if err != nil {
		if m.emitter != nil {
			m.emitter.EmitFitMetrics(ctx, spec.CovType, trendOf(spec), constants.OutcomeError, time.Since(start), 0)
		}
		return nil, err
	}
	if m.emitter != nil {
		m.emitter.EmitFitMetrics(ctx, model.CovType.String(), string(model.TrendType),
			outcome(model.Status), model.Time, model.NitOpt)
	}
	return model, nil
}

// Add stores a fitted model under name.
func (m *Manager) Add(ctx context.Context, name string, model *gp.Model) *Entry {
	e := &Entry{
		ID:      uuid.NewString(),
		Name:    name,
		Created: time.Now(),
		Model:   model,
	}
	m.mu.Lock()
	if _, exists := m.models[name]; exists {
		logger.Log.Infof("replacing model %s", name)
	}
	m.models[name] = e
	count := len(m.models)
	m.mu.Unlock()
	if m.emitter != nil {
		m.emitter.EmitModelCount(ctx, count)
	}
	return e
}

func (m *Manager) Get(name string) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.models[name]
	return e, ok
}

// List returns entries sorted by name.
func (m *Manager) List() []*Entry {
	m.mu.RLock()
	out := make([]*Entry, 0, len(m.models))
	for _, e := range m.models {
		out = append(out, e)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Manager) Remove(ctx context.Context, name string) (*Entry, error) {
	m.mu.Lock()
	e, ok := m.models[name]
	if ok {
		delete(m.models, name)
	}
	count := len(m.models)
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	if m.emitter != nil {
		m.emitter.EmitModelCount(ctx, count)
	}
	return e, nil
}

// Predict queries the named model.
func (m *Manager) Predict(ctx context.Context, name string, x, xprime mat.Matrix) (*gp.Prediction, error) {
	e, ok := m.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	return m.PredictModel(ctx, name, e.Model, x, xprime)
}

// PredictModel queries a model and records the prediction under name.
func (m *Manager) PredictModel(ctx context.Context, name string, model *gp.Model, x, xprime mat.Matrix) (*gp.Prediction, error) {
	p, err := model.Predict(x, xprime)
	if err != nil {
		return nil, err
	}
	if m.emitter != nil {
		m.emitter.EmitPredictionMetrics(ctx, name, len(p.Mean), p.NegativeVariances)
	}
	return p, nil
}

func (m *Manager) Rebuild(name string, robust bool) (*Entry, error) {
	e, ok := m.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	if err := e.Model.Rebuild(robust); err != nil {
		return nil, err
	}
	return e, nil
}

func (m *Manager) Strip(name string) (*Entry, error) {
	e, ok := m.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	e.Model.Strip()
	return e, nil
}

func outcome(s gp.FitStatus) string {
	switch s {
	case gp.StatusConverged:
		return constants.OutcomeConverged
	case gp.StatusFallback:
		return constants.OutcomeFallback
	}
	return constants.OutcomeFixed
}

func trendOf(spec *config.FitSpec) string {
	if spec.Known.Beta0 != nil {
		return string(gp.SK)
	}
	return string(gp.OK)
}
