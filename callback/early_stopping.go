package callback

import (
	"fmt"
	"math"

	"github.com/keisho-oh/lightgbm/pkg/errors"
	"github.com/keisho-oh/lightgbm/pkg/log"
)

// EarlyStopping stops the run when validation scores don't improve by at least
// the configured tolerance within the patience window.
//
// The monitor tracks every (dataset, metric) pair of the evaluation result
// list. Training-data entries are tracked but never cause termination on their
// own; with more than one validation metric all of them are checked unless
// FirstMetricOnly restricts the decision to the first one. The run also
// terminates on its final iteration, so the signal always carries the best
// iteration and the full evaluation list snapshotted at that iteration.
//
// One instance serves one training run at a time. Raising the signal resets
// the monitor, so the same instance can be reused by repeated training calls
// (e.g. cross-validation folds) as long as each run supplies a fresh,
// positionally stable snapshot sequence.
type EarlyStopping struct {
	stoppingRounds  int
	firstMetricOnly bool
	verbose         bool
	minDelta        float64
	minDeltaList    []float64
	logger          log.Logger

	// per-index state, allocated from the first snapshot
	enabled       bool
	inited        bool
	bestScore     []float64
	bestIter      []int
	bestScoreList [][]EvalResult
	cmp           []func(score, best float64) bool
	firstMetric   string
}

// EarlyStoppingOption configures the monitor.
type EarlyStoppingOption func(*EarlyStopping)

// WithFirstMetricOnly restricts termination decisions to the first reported
// metric; the remaining metrics are still tracked.
func WithFirstMetricOnly() EarlyStoppingOption {
	return func(es *EarlyStopping) { es.firstMetricOnly = true }
}

// WithVerbose controls whether the monitor logs its decisions. Enabled by
// default.
func WithVerbose(verbose bool) EarlyStoppingOption {
	return func(es *EarlyStopping) { es.verbose = verbose }
}

// WithMinDelta sets a single non-negative improvement tolerance applied to all
// metrics.
func WithMinDelta(delta float64) EarlyStoppingOption {
	return func(es *EarlyStopping) {
		es.minDelta = delta
		es.minDeltaList = nil
	}
}

// WithMinDeltaPerMetric sets one improvement tolerance per metric. An empty
// list disables the tolerance, a single value is broadcast to all metrics, and
// a list matching the number of metrics is tiled across datasets. Any other
// length fails at initialization.
func WithMinDeltaPerMetric(deltas ...float64) EarlyStoppingOption {
	return func(es *EarlyStopping) {
		es.minDeltaList = append(make([]float64, 0, len(deltas)), deltas...)
	}
}

// WithLogger sets the logging sink. Defaults to the process-default slog
// backend.
func WithLogger(logger log.Logger) EarlyStoppingOption {
	return func(es *EarlyStopping) { es.logger = logger }
}

// NewEarlyStopping creates the early-stopping monitor with the given patience
// window.
func NewEarlyStopping(stoppingRounds int, opts ...EarlyStoppingOption) *EarlyStopping {
	es := &EarlyStopping{
		stoppingRounds: stoppingRounds,
		verbose:        true,
	}
	for _, opt := range opts {
		opt(es)
	}
	if es.logger == nil {
		es.logger = log.NewSlogLogger()
	}
	return es
}

// Order implements Orderer.
func (es *EarlyStopping) Order() int { return 30 }

// Call implements Callback.
func (es *EarlyStopping) Call(env *Env) error {
	if !es.inited {
		if err := es.init(env); err != nil {
			return err
		}
	}
	if !es.enabled {
		return nil
	}
	for i := range env.EvaluationResultList {
		entry := env.EvaluationResultList[i]
		if es.bestScoreList[i] == nil || es.cmp[i](entry.Value, es.bestScore[i]) {
			es.bestScore[i] = entry.Value
			es.bestIter[i] = env.Iteration
			es.bestScoreList[i] = append([]EvalResult(nil), env.EvaluationResultList...)
		}
		suffix := entry.metricSuffix()
		if es.firstMetricOnly && es.firstMetric != suffix {
			continue // use only the first metric for early stopping
		}
		if es.isTrainingEntry(env, entry) {
			// train data entries never trigger early stopping themselves
			if err := es.finalIterationCheck(env, suffix, i); err != nil {
				return err
			}
			continue
		}
		if env.Iteration-es.bestIter[i] >= es.stoppingRounds {
			if es.verbose {
				es.logger.Info(fmt.Sprintf("Early stopping, best iteration is:\n[%d]\t%s",
					es.bestIter[i]+1, formatEvalResults(es.bestScoreList[i], true)),
					log.BestIterationKey, es.bestIter[i],
				)
				if es.firstMetricOnly {
					es.logger.Info(fmt.Sprintf("Evaluated only: %s", suffix))
				}
			}
			es.inited = false
			return &EarlyStopError{BestIteration: es.bestIter[i], BestScore: es.bestScoreList[i]}
		}
		if err := es.finalIterationCheck(env, suffix, i); err != nil {
			return err
		}
	}
	return nil
}

// init establishes the per-index state from the first snapshot of a run.
func (es *EarlyStopping) init(env *Env) error {
	if boostingMode(env.Params, "dart") {
		// stays disabled for the whole run, warn once
		es.enabled = false
		es.inited = true
		es.logger.Warn("Early stopping is not available in dart mode")
		errors.Warn(errors.NewEarlyStoppingUnavailableWarning("dart", "non-monotonic convergence behavior"))
		return nil
	}
	es.enabled = true
	if len(env.EvaluationResultList) == 0 {
		return errors.NewValueError("early_stopping",
			"for early stopping, at least one dataset and eval metric is required for evaluation")
	}

	if es.verbose {
		es.logger.Info(fmt.Sprintf("Training until validation scores don't improve for %d rounds", es.stoppingRounds),
			log.StoppingRoundsKey, es.stoppingRounds,
		)
	}

	n := len(env.EvaluationResultList)
	es.bestScore = make([]float64, n)
	es.bestIter = make([]int, n)
	es.bestScoreList = make([][]EvalResult, n)
	es.cmp = make([]func(score, best float64) bool, n)
	es.inited = true

	deltas, err := es.resolveDeltas(env)
	if err != nil {
		es.inited = false
		return err
	}

	es.firstMetric = env.EvaluationResultList[0].metricSuffix()
	for i, entry := range env.EvaluationResultList {
		delta := deltas[i]
		if entry.IsHigherBetter {
			es.bestScore[i] = math.Inf(-1)
			es.cmp[i] = gtDelta(delta)
		} else {
			es.bestScore[i] = math.Inf(1)
			es.cmp[i] = ltDelta(delta)
		}
	}
	return nil
}

// resolveDeltas expands the configured tolerance into one value per index of
// the evaluation result list.
func (es *EarlyStopping) resolveDeltas(env *Env) ([]float64, error) {
	metrics := make(map[string]struct{})
	for _, entry := range env.EvaluationResultList {
		metrics[entry.MetricName] = struct{}{}
	}
	nMetrics := len(metrics)
	nDatasets := len(env.EvaluationResultList) / nMetrics

	if es.minDeltaList == nil {
		if es.minDelta < 0 {
			return nil, errors.NewValueError("early_stopping", "min_delta must be non-negative")
		}
		if es.minDelta > 0 && nMetrics > 1 && !es.firstMetricOnly && es.verbose {
			es.logger.Info(fmt.Sprintf("Using %g as min_delta for all metrics", es.minDelta))
		}
		deltas := make([]float64, nDatasets*nMetrics)
		for i := range deltas {
			deltas[i] = es.minDelta
		}
		return deltas, nil
	}

	for _, d := range es.minDeltaList {
		if d < 0 {
			return nil, errors.NewValueError("early_stopping", "values for min_delta must be non-negative")
		}
	}
	switch len(es.minDeltaList) {
	case 0:
		if es.verbose {
			es.logger.Info("Disabling min_delta for early stopping")
		}
		return make([]float64, nDatasets*nMetrics), nil
	case 1:
		if es.verbose {
			es.logger.Info(fmt.Sprintf("Using %g as min_delta for all metrics", es.minDeltaList[0]))
		}
		deltas := make([]float64, nDatasets*nMetrics)
		for i := range deltas {
			deltas[i] = es.minDeltaList[0]
		}
		return deltas, nil
	case nMetrics:
		if es.firstMetricOnly && es.verbose {
			es.logger.Info(fmt.Sprintf("Using only %g as early stopping min_delta", es.minDeltaList[0]))
		}
		// tile the per-metric tolerances across datasets
		deltas := make([]float64, 0, nDatasets*nMetrics)
		for d := 0; d < nDatasets; d++ {
			deltas = append(deltas, es.minDeltaList...)
		}
		return deltas, nil
	default:
		return nil, errors.NewValueError("early_stopping",
			"must provide a single value for min_delta or as many as metrics")
	}
}

// isTrainingEntry reports whether the entry belongs to the training data:
// either the model's training dataset, or a cross-validation aggregate over
// the training folds.
func (es *EarlyStopping) isTrainingEntry(env *Env, entry EvalResult) bool {
	if entry.DatasetName == "cv_agg" {
		if first := firstToken(entry.MetricName); first == "train" {
			return true
		}
	}
	return env.Model != nil && entry.DatasetName == env.Model.TrainDataName()
}

// finalIterationCheck raises the termination signal on the run's last
// iteration: the run ended without triggering early stop, but the best
// snapshot is still the correct result.
func (es *EarlyStopping) finalIterationCheck(env *Env, metricSuffix string, i int) error {
	if env.Iteration != env.EndIteration-1 {
		return nil
	}
	if es.verbose {
		es.logger.Info(fmt.Sprintf("Did not meet early stopping. Best iteration is:\n[%d]\t%s",
			es.bestIter[i]+1, formatEvalResults(es.bestScoreList[i], true)),
			log.BestIterationKey, es.bestIter[i],
		)
		if es.firstMetricOnly {
			es.logger.Info(fmt.Sprintf("Evaluated only: %s", metricSuffix))
		}
	}
	es.inited = false
	return &EarlyStopError{BestIteration: es.bestIter[i], BestScore: es.bestScoreList[i]}
}

func gtDelta(delta float64) func(score, best float64) bool {
	return func(score, best float64) bool {
		return score > best+delta
	}
}

func ltDelta(delta float64) func(score, best float64) bool {
	return func(score, best float64) bool {
		return score < best-delta
	}
}

func firstToken(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return s[:i]
		}
	}
	return s
}
