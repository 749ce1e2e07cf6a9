package callback

import (
	"fmt"
	"strings"
)

// Model is the opaque handle to the model being trained, as seen by callbacks.
// The training loop owns the concrete implementation.
type Model interface {
	// ResetParameter applies a batch of new hyperparameter values to the model
	// so they take effect for the current round's update.
	ResetParameter(params map[string]interface{}) error

	// TrainDataName returns the name of the training dataset within the
	// evaluation result list. Entries for this dataset are tracked by the
	// early-stopping monitor but never cause termination on their own.
	TrainDataName() string
}

// EvalResult is one evaluation entry reported for a boosting round.
//
// Aggregated entries (e.g. cross-validation means) additionally carry a
// standard deviation, flagged by HasStdv.
type EvalResult struct {
	DatasetName    string
	MetricName     string
	Value          float64
	IsHigherBetter bool
	HasStdv        bool
	Stdv           float64
}

// String formats the entry as "<dataset>'s <metric>: <value>", including the
// standard deviation when present.
func (e EvalResult) String() string {
	return e.format(true)
}

func (e EvalResult) format(showStdv bool) string {
	if e.HasStdv && showStdv {
		return fmt.Sprintf("%s's %s: %g + %g", e.DatasetName, e.MetricName, e.Value, e.Stdv)
	}
	return fmt.Sprintf("%s's %s: %g", e.DatasetName, e.MetricName, e.Value)
}

// metricSuffix returns the comparable metric identity: the text after the last
// space in the metric name. Datasets may prefix metric names with a qualifier
// (e.g. "train l1" in cross-validation aggregates).
func (e EvalResult) metricSuffix() string {
	parts := strings.Split(e.MetricName, " ")
	return parts[len(parts)-1]
}

// formatEvalResults joins the formatted entries with tabs.
func formatEvalResults(results []EvalResult, showStdv bool) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.format(showStdv)
	}
	return strings.Join(parts, "\t")
}

// Env is the per-round snapshot passed into every callback.
//
// EvaluationResultList keeps the same length, the same dataset/metric
// identities and the same order across all iterations of one training run;
// the early-stopping monitor indexes into it positionally and relies on that
// stability. It is nil during the before-update phase of a round.
type Env struct {
	Model                Model
	Params               map[string]interface{}
	Iteration            int
	BeginIteration       int
	EndIteration         int
	EvaluationResultList []EvalResult
}

// boostingAliases are the parameter names under which the boosting mode may be
// configured.
var boostingAliases = []string{"boosting", "boosting_type", "boost"}

// boostingMode reports whether any boosting alias in the parameter map is set
// to the given mode.
func boostingMode(params map[string]interface{}, mode string) bool {
	for _, alias := range boostingAliases {
		if v, ok := params[alias]; ok {
			if s, ok := v.(string); ok && s == mode {
				return true
			}
		}
	}
	return false
}
