// Package constants provides centralized constant definitions for the GP surrogate service.
package constants

// Output metrics
// These metric names are emitted by the fitting and prediction paths.
const (
	// HomGPFitsTotal counts completed fits.
	// Labels: cov_type, trend_type, outcome (converged, fallback, fixed, error)
	HomGPFitsTotal = "homgp_fits_total"

	// HomGPFitDurationSeconds is a histogram of wall-clock fit time.
	// Labels: cov_type
	HomGPFitDurationSeconds = "homgp_fit_duration_seconds"

	// HomGPOptimizerIterations is a histogram of optimizer iterations per fit.
	// Labels: cov_type
	HomGPOptimizerIterations = "homgp_optimizer_iterations"

	// HomGPPredictionsTotal counts predicted query points.
	// Labels: model_name
	HomGPPredictionsTotal = "homgp_predictions_total"

	// HomGPNegativeVarianceTotal counts predictive variances clamped to zero.
	// Labels: model_name
	HomGPNegativeVarianceTotal = "homgp_negative_variance_total"

	// HomGPModels is a gauge of models held by the registry.
	HomGPModels = "homgp_models"
)

// Metric Label Names
const (
	LabelCovType   = "cov_type"
	LabelTrendType = "trend_type"
	LabelOutcome   = "outcome"
	LabelModelName = "model_name"
)

// Fit outcomes
const (
	OutcomeConverged = "converged"
	OutcomeFallback  = "fallback"
	OutcomeFixed     = "fixed"
	OutcomeError     = "error"
)
