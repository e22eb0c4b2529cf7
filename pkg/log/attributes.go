// Package log defines standard attribute keys for detector operations.
//
// This file contains predefined attribute keys that provide consistency across
// all logging operations in AnoGo. Using these standard keys enables better
// log analysis, monitoring, and debugging of anomaly-detection workflows.
//
// The keys follow a hierarchical naming convention (e.g., "detector.name",
// "data.samples") to enable structured log analysis and filtering.

package log

// Detector and Operation Context
// These attributes identify the detector, its component, and the operation
// being performed.
const (
	// DetectorNameKey identifies the algorithm behind a detector instance.
	// Examples: "IsolationForest", "HBOS"
	DetectorNameKey = "detector.name"

	// DetectorIDKey provides a unique identifier for a specific detector
	// instance, useful when several instances of one algorithm coexist.
	DetectorIDKey = "detector.id"

	// OperationKey specifies the lifecycle operation being performed.
	// Standard values: "fit", "predict", "predict_score", "save", "load"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the
	// operation. Examples: "registry", "adapter", "container", "validation"
	ComponentKey = "ml.component"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	// Important for debugging shape mismatches between fit and predict.
	FeaturesKey = "data.features"

	// DataTypeKey specifies the source type of data that was coerced.
	// Examples: "[][]float64", "[]int", "mat.Dense"
	DataTypeKey = "data.type"
)

// Detector State
// These attributes expose contract-level state useful when auditing the
// lifecycle of a detector.
const (
	// ContaminationKey records the expected anomaly fraction configured at
	// construction time.
	ContaminationKey = "detector.contamination"

	// ThresholdKey records the fitted (or explicitly supplied) score cut-off.
	ThresholdKey = "detector.threshold"

	// FittedKey records whether the detector considers itself fitted.
	FittedKey = "detector.fitted"

	// BackendKey identifies the native backend type behind an adapter.
	BackendKey = "detector.backend"

	// HyperParamsKey carries the merged backend parameters as a structured
	// object, for reproducibility auditing.
	HyperParamsKey = "detector.hyperparams"
)

// Prediction Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// AnomaliesKey indicates how many samples were classified anomalous.
	AnomaliesKey = "preds.anomalies"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Persistence Context
const (
	// PathKey records the container path used by save/load operations.
	PathKey = "persist.path"

	// SchemaVersionKey records the attribute-record schema version read from
	// or written to a container.
	SchemaVersionKey = "persist.schema_version"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	// Examples: "NOT_FITTED", "DIMENSION_MISMATCH", "UNKNOWN_ALGORITHM"
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	// Examples: "ConfigError", "DataFormatError", "LoadError"
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	// Automatically populated by the error logging functions.
	StacktraceKey = "error.stacktrace"

	// SuggestionKey provides helpful suggestions for resolving issues.
	// Examples: "Call Fit() first", "Check the registered algorithm names"
	SuggestionKey = "error.suggestion"
)

// Configuration
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// ConfigVersionKey tracks the library version that produced an artifact.
	ConfigVersionKey = "config.version"
)

// Standard attribute value constants for common operations.
// Using these constants ensures consistency across the codebase.
const (
	// Standard lifecycle operations
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationPredictScore = "predict_score"
	OperationSave         = "save"
	OperationLoad         = "load"
	OperationResolve      = "resolve"
	OperationValidate     = "validate"

	// Standard error codes
	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorUnknownAlgorithm  = "UNKNOWN_ALGORITHM"
	ErrorNotLinked         = "ADAPTER_NOT_LINKED"
	ErrorMissingPart       = "MISSING_PART"
)
