// Package log defines standard attribute keys for boosting training operations.
//
// Using these standard keys enables consistent log analysis and filtering across
// all components of the training callback subsystem. The keys follow a
// hierarchical naming convention (e.g., "training.iteration", "eval.dataset").
package log

// Training Context
// These attributes identify the training run and its progress.
const (
	// ComponentKey identifies which component is performing the operation.
	// Examples: "callback_list", "early_stopping", "reset_parameter"
	ComponentKey = "component"

	// IterationKey records the current boosting iteration (zero-based).
	IterationKey = "training.iteration"

	// NumBoostRoundKey records the total number of boosting rounds configured
	// for the run.
	NumBoostRoundKey = "training.num_boost_round"

	// BestIterationKey records the iteration with the best validation score.
	BestIterationKey = "training.best_iteration"

	// TrainDataNameKey identifies the training dataset within the evaluation
	// result list.
	TrainDataNameKey = "training.train_data_name"
)

// Evaluation Context
// These attributes describe evaluation entries observed by callbacks.
const (
	// DatasetKey identifies the dataset an evaluation entry belongs to.
	// Examples: "training", "valid_0", "cv_agg"
	DatasetKey = "eval.dataset"

	// MetricKey identifies the metric of an evaluation entry.
	// Examples: "l2", "l1", "auc", "train l2" (cross-validation aggregate)
	MetricKey = "eval.metric"

	// ScoreKey records the metric value of an evaluation entry.
	ScoreKey = "eval.score"

	// StdvKey records the standard deviation of an aggregated evaluation entry.
	StdvKey = "eval.stdv"
)

// Early Stopping Context
// These attributes capture the convergence monitor's configuration and decisions.
const (
	// StoppingRoundsKey records the configured patience window.
	StoppingRoundsKey = "early_stopping.rounds"

	// MinDeltaKey records the minimum improvement tolerance in effect.
	MinDeltaKey = "early_stopping.min_delta"

	// FirstMetricOnlyKey records whether termination decisions are restricted
	// to the first reported metric.
	FirstMetricOnlyKey = "early_stopping.first_metric_only"
)

// Hyperparameter Context
// These attributes capture parameter scheduling activity.
const (
	// ParamNameKey identifies a hyperparameter being reassigned.
	ParamNameKey = "param.name"

	// LearningRateKey records the learning rate for the current round.
	LearningRateKey = "param.learning_rate"
)

// Error Context
const (
	// ErrAttrKey is the attribute key under which error values are logged.
	ErrAttrKey = "error"

	// StacktraceAttrKey is the attribute key under which extracted stack
	// traces are logged.
	StacktraceAttrKey = "stacktrace"
)
