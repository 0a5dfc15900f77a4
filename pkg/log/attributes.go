package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "Driver" or "Coordinator".
	ModelNameKey = "model.name"

	// OperationKey is the operation being performed. See the Operation* values.
	OperationKey = "ml.operation"

	// ComponentKey is the package emitting the record.
	ComponentKey = "ml.component"

	// PhaseKey is the lifecycle phase. See the Phase* values.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	MissingKey  = "data.missing"
	RowKey      = "data.row"
)

// EM run state.
const (
	// IterationKey is the outer EM iteration.
	IterationKey = "training.iteration"

	// ModeKey is the imputation strategy ("reversible" or "normal").
	ModeKey = "em.mode"

	// MixtureComponentKey is the index of a mixture component.
	MixtureComponentKey = "em.component"

	// ComponentsKey is the number of mixture components.
	ComponentsKey = "em.components"

	// ConvergedKey reports whether the termination test passed.
	ConvergedKey = "em.converged"

	// FailedComponentsKey counts mixture components dropped during a fit.
	FailedComponentsKey = "em.failed_components"

	// VarianceKey is the residual variance of a fitted parameter set.
	VarianceKey = "em.z_variance"

	// LogLikelihoodKey is the mixture log-likelihood of the observed responses.
	LogLikelihoodKey = "em.log_likelihood"
)

// Performance and error context.
const (
	DurationMsKey = "perf.duration_ms"
	ErrorCodeKey  = "error.code"
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationLearn       = "learn"
	OperationPredict     = "predict"
	OperationExpectation = "expectation"
	OperationMaximize    = "maximization"
	OperationInitialize  = "initialize"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	ErrorNotFitted      = "NOT_FITTED"
	ErrorDegenerateRow  = "DEGENERATE_ROW"
	ErrorConvergence    = "CONVERGENCE_FAILURE"
	ErrorSingularMatrix = "SINGULAR_MATRIX"
	ErrorInvalidData    = "INVALID_DATA"
)
