package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/llm-d-incubation/homgp/internal/constants"
)

var (
	fitsTotal             *prometheus.CounterVec
	fitDuration           *prometheus.HistogramVec
	optimizerIterations   *prometheus.HistogramVec
	predictionsTotal      *prometheus.CounterVec
	negativeVarianceTotal *prometheus.CounterVec
	models                prometheus.Gauge
)

// InitMetrics registers all custom metrics with the provided registry
func InitMetrics(registry prometheus.Registerer) {
	fitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: constants.HomGPFitsTotal,
			Help: "Total number of model fits",
		},
		[]string{constants.LabelCovType, constants.LabelTrendType, constants.LabelOutcome},
	)
	fitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    constants.HomGPFitDurationSeconds,
			Help:    "Wall-clock time of model fits",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{constants.LabelCovType},
	)
	optimizerIterations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    constants.HomGPOptimizerIterations,
			Help:    "Optimizer iterations per fit",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{constants.LabelCovType},
	)
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: constants.HomGPPredictionsTotal,
			Help: "Total number of predicted query points",
		},
		[]string{constants.LabelModelName},
	)
	negativeVarianceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: constants.HomGPNegativeVarianceTotal,
			Help: "Total number of predictive variances clamped to zero",
		},
		[]string{constants.LabelModelName},
	)
	models = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: constants.HomGPModels,
			Help: "Number of models held by the registry",
		},
	)

	registry.MustRegister(fitsTotal)
	registry.MustRegister(fitDuration)
	registry.MustRegister(optimizerIterations)
	registry.MustRegister(predictionsTotal)
	registry.MustRegister(negativeVarianceTotal)
	registry.MustRegister(models)
}

// InitMetricsAndEmitter registers metrics with Prometheus and creates a metrics emitter
func InitMetricsAndEmitter(registry prometheus.Registerer) *MetricsEmitter {
	InitMetrics(registry)
	return NewMetricsEmitter()
}

// MetricsEmitter handles emission of custom metrics. Emitting before
// InitMetrics is a no-op.
type MetricsEmitter struct{}

// NewMetricsEmitter creates a new metrics emitter
func NewMetricsEmitter() *MetricsEmitter {
	return &MetricsEmitter{}
}

// EmitFitMetrics records one fit; iterations and duration are only observed
// for fits that produced a model.
func (m *MetricsEmitter) EmitFitMetrics(ctx context.Context, covType, trendType, outcome string, duration time.Duration, iterations int) {
	if fitsTotal == nil {
		return
	}
	fitsTotal.With(prometheus.Labels{
		constants.LabelCovType:   covType,
		constants.LabelTrendType: trendType,
		constants.LabelOutcome:   outcome,
	}).Inc()
	if outcome == constants.OutcomeError {
		return
	}
	labels := prometheus.Labels{constants.LabelCovType: covType}
	fitDuration.With(labels).Observe(duration.Seconds())
	optimizerIterations.With(labels).Observe(float64(iterations))
}

// EmitPredictionMetrics records predicted points and clamped variances
func (m *MetricsEmitter) EmitPredictionMetrics(ctx context.Context, modelName string, points, negative int) {
	if predictionsTotal == nil {
		return
	}
	labels := prometheus.Labels{constants.LabelModelName: modelName}
	predictionsTotal.With(labels).Add(float64(points))
	if negative > 0 {
		negativeVarianceTotal.With(labels).Add(float64(negative))
	}
}

// EmitModelCount sets the number of registered models
func (m *MetricsEmitter) EmitModelCount(ctx context.Context, count int) {
	if models == nil {
		return
	}
	models.Set(float64(count))
}
