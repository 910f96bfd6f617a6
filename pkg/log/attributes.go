// Package log defines standard attribute keys for machine learning operations.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so that fit logs from different estimators can be filtered
// the same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "LinearRegression", "KMeans", "PCA"
	ModelNameKey = "model.name"

	// OperationKey specifies the machine learning operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "reconstruct"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the operation.
	ComponentKey = "ml.component"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of target classes.
	ClassesKey = "data.classes"

	// BatchSizeKey indicates the size of mini-batches drawn by SGD.
	BatchSizeKey = "data.batch_size"
)

// Training progress
const (
	// LossKey records loss value during training or evaluation.
	LossKey = "metrics.loss"

	// InertiaKey records the within-cluster sum of squared distances.
	InertiaKey = "metrics.inertia"

	// ExplainedVarianceKey records the cumulative explained variance ratio kept by PCA.
	ExplainedVarianceKey = "metrics.explained_variance"

	// IterationKey records the current or final iteration number.
	IterationKey = "training.iteration"

	// EpochKey records the number of epochs run.
	EpochKey = "training.epoch"
)

// Hyperparameters and Configuration
const (
	// SolverKey records which solver a linear model used.
	SolverKey = "hyperparams.solver"

	// LearningRateKey records the learning rate for gradient-based algorithms.
	LearningRateKey = "hyperparams.learning_rate"

	// RegularizationKey records the regularizer name.
	RegularizationKey = "hyperparams.regularization"

	// ClustersKey records the number of clusters K.
	ClustersKey = "hyperparams.n_clusters"

	// ComponentsKey records the number of principal components kept.
	ComponentsKey = "hyperparams.n_components"

	// NeighborsKey records k for nearest-neighbor lookups.
	NeighborsKey = "hyperparams.n_neighbors"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationReconstruct  = "reconstruct"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyCluster      = "EMPTY_CLUSTER"
	ErrorNumerical         = "NUMERICAL_INSTABILITY"
)
