// Package log defines standard attribute keys for estimator operations.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples",
// "chain.draws") so records from different estimators can be filtered the
// same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "BayesianLinearRegression", "BayesianLinearEstimation"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "predict_std", "predict_interval", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"
)

// Posterior draws
const (
	// DrawsKey is the number of draws returned by the sampler.
	DrawsKey = "posterior.draws"

	// ChainDrawsKey is the number of draws retained after warm-up.
	ChainDrawsKey = "chain.draws"

	// ChainWarmupKey is the number of draws discarded as warm-up.
	ChainWarmupKey = "chain.warmup"

	// VariableKey names a posterior variable ("alpha", "betas", "obs").
	VariableKey = "posterior.variable"

	// PropagationKey records the error-propagation mode.
	PropagationKey = "predict.propagation"
)

// Performance
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records R² coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// WarningKey carries a warning value emitted through errors.Warn.
	WarningKey = "warning"
)

// Standard attribute values.
const (
	OperationFit             = "fit"
	OperationPredict         = "predict"
	OperationPredictStd      = "predict_std"
	OperationPredictInterval = "predict_interval"
	OperationScore           = "score"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	ErrorNotFitted           = "NOT_FITTED"
	ErrorDimensionMismatch   = "DIMENSION_MISMATCH"
	ErrorInsufficientSamples = "INSUFFICIENT_SAMPLES"
	ErrorSamplerFailed       = "SAMPLER_FAILED"
)
