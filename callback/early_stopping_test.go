package callback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keisho-oh/lightgbm/pkg/errors"
	"github.com/keisho-oh/lightgbm/pkg/log"
)

// driveValid feeds the monitor one validation entry per round and returns the
// first non-nil result along with the iteration it occurred at.
func driveValid(t *testing.T, es *EarlyStopping, metric string, higherBetter bool, scores []float64, endIteration int) (error, int) {
	t.Helper()
	for iter, score := range scores {
		env := newTestEnv(iter, endIteration, []EvalResult{
			{DatasetName: "valid_0", MetricName: metric, Value: score, IsHigherBetter: higherBetter},
		})
		if err := es.Call(env); err != nil {
			return err, iter
		}
	}
	return nil, -1
}

func quietEarlyStopping(rounds int, opts ...EarlyStoppingOption) *EarlyStopping {
	logger, _ := log.NewTestLogger(log.LevelError)
	return NewEarlyStopping(rounds, append(opts, WithLogger(logger))...)
}

func TestEarlyStoppingStagnantValidation(t *testing.T) {
	// lower-is-better l2 over two validation sets: best at index 1 (0.9), then
	// three consecutive non-improving rounds exhaust the patience window.
	scores := []float64{1.0, 0.9, 0.95, 0.96, 0.97}
	es := quietEarlyStopping(3)

	var stop *EarlyStopError
	for iter, score := range scores {
		env := newTestEnv(iter, 10, []EvalResult{
			{DatasetName: "valid_0", MetricName: "l2", Value: score},
			{DatasetName: "valid_1", MetricName: "l2", Value: score},
		})
		err := es.Call(env)
		if err != nil {
			var ok bool
			stop, ok = AsEarlyStop(err)
			require.True(t, ok, "unexpected failure: %v", err)
			assert.Equal(t, 4, iter, "termination round")
			break
		}
	}

	require.NotNil(t, stop, "early stop signal was not raised")
	assert.Equal(t, 1, stop.BestIteration)
	require.Len(t, stop.BestScore, 2, "snapshot must carry the full evaluation list")
	assert.Equal(t, 0.9, stop.BestScore[0].Value)
	assert.Equal(t, 0.9, stop.BestScore[1].Value)
}

func TestEarlyStoppingMonotonicWorsening(t *testing.T) {
	// improves until round 2, monotonically worsens afterwards
	scores := []float64{1.0, 0.8, 0.7, 0.75, 0.8, 0.85, 0.9}
	es := quietEarlyStopping(2)

	err, iter := driveValid(t, es, "l2", false, scores, 100)
	stop, ok := AsEarlyStop(err)
	require.True(t, ok, "expected early stop, got %v", err)
	assert.Equal(t, 2, stop.BestIteration)
	assert.Equal(t, 4, iter)
	assert.Equal(t, 0.7, stop.BestScore[0].Value)
}

func TestEarlyStoppingHigherIsBetter(t *testing.T) {
	scores := []float64{0.5, 0.6, 0.6, 0.6}
	es := quietEarlyStopping(2)

	err, iter := driveValid(t, es, "auc", true, scores, 100)
	stop, ok := AsEarlyStop(err)
	require.True(t, ok, "expected early stop, got %v", err)
	assert.Equal(t, 1, stop.BestIteration)
	assert.Equal(t, 3, iter)
}

func TestEarlyStoppingMinDelta(t *testing.T) {
	// with min_delta = 0.01, the 0.001 improvements at rounds 2 and 3 do not
	// reset the patience counter; the 0.02 improvement at round 1 does
	scores := []float64{1.0, 0.98, 0.979, 0.978}
	es := quietEarlyStopping(2, WithMinDelta(0.01))

	err, iter := driveValid(t, es, "l2", false, scores, 100)
	stop, ok := AsEarlyStop(err)
	require.True(t, ok, "expected early stop, got %v", err)
	assert.Equal(t, 1, stop.BestIteration)
	assert.Equal(t, 3, iter)

	// under zero tolerance the same trend keeps improving and never stops
	es = quietEarlyStopping(2)
	err, _ = driveValid(t, es, "l2", false, scores, 100)
	assert.NoError(t, err)
}

func TestEarlyStoppingNegativeMinDelta(t *testing.T) {
	env := newTestEnv(0, 10, []EvalResult{validEntry("valid_0", "l2", 1.0)})

	es := quietEarlyStopping(5, WithMinDelta(-0.1))
	err := es.Call(env)
	require.Error(t, err, "negative min_delta must fail before any iteration")
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))

	es = quietEarlyStopping(5, WithMinDeltaPerMetric(0.1, -0.1))
	err = es.Call(env)
	require.Error(t, err)
	assert.True(t, errors.As(err, &valErr))
}

func TestEarlyStoppingMinDeltaListLength(t *testing.T) {
	// one dataset, two metrics: a list of any other length is rejected
	env := newTestEnv(0, 10, []EvalResult{
		validEntry("valid_0", "l2", 1.0),
		validEntry("valid_0", "l1", 1.0),
	})

	es := quietEarlyStopping(5, WithMinDeltaPerMetric(0.1, 0.1, 0.1))
	err := es.Call(env)
	require.Error(t, err)
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
}

func TestEarlyStoppingMinDeltaPerMetricTiling(t *testing.T) {
	// l2 gets tolerance 0, l1 gets 0.5: l2 genuinely improves every round
	// while l1's small dips stay below its tolerance, so l1 exhausts the
	// patience window with its best still at round 0
	es := quietEarlyStopping(2, WithMinDeltaPerMetric(0.0, 0.5))

	l2 := []float64{3.0, 2.0, 1.0, 0.5}
	l1 := []float64{3.0, 2.9, 2.95, 2.9}
	var stop *EarlyStopError
	for iter := range l2 {
		env := newTestEnv(iter, 100, []EvalResult{
			{DatasetName: "valid_0", MetricName: "l2", Value: l2[iter]},
			{DatasetName: "valid_0", MetricName: "l1", Value: l1[iter]},
		})
		err := es.Call(env)
		if err != nil {
			var ok bool
			stop, ok = AsEarlyStop(err)
			require.True(t, ok, "unexpected failure: %v", err)
			assert.Equal(t, 2, iter)
			break
		}
	}
	require.NotNil(t, stop)
	assert.Equal(t, 0, stop.BestIteration)
}

func TestEarlyStoppingEmptyMinDeltaList(t *testing.T) {
	// an explicitly empty list disables the tolerance
	scores := []float64{1.0, 0.999, 0.998, 0.997}
	es := quietEarlyStopping(2, WithMinDeltaPerMetric())

	err, _ := driveValid(t, es, "l2", false, scores, 100)
	assert.NoError(t, err, "tiny improvements must count under zero tolerance")
}

func TestEarlyStoppingFirstMetricOnly(t *testing.T) {
	// first metric l2 is stagnant, second metric l1 keeps improving: with
	// first_metric_only the stop timing follows l2 alone
	es := quietEarlyStopping(2, WithFirstMetricOnly())

	var stop *EarlyStopError
	for iter := 0; iter < 5; iter++ {
		env := newTestEnv(iter, 100, []EvalResult{
			{DatasetName: "valid_0", MetricName: "l2", Value: 1.0},
			{DatasetName: "valid_0", MetricName: "l1", Value: 1.0 / float64(iter+1)},
		})
		err := es.Call(env)
		if err != nil {
			var ok bool
			stop, ok = AsEarlyStop(err)
			require.True(t, ok, "unexpected failure: %v", err)
			assert.Equal(t, 2, iter)
			break
		}
	}
	require.NotNil(t, stop)
	assert.Equal(t, 0, stop.BestIteration)
	// the improving second metric is still tracked in the snapshot
	require.Len(t, stop.BestScore, 2)
	assert.Equal(t, 1.0, stop.BestScore[1].Value)
}

func TestEarlyStoppingTrainingDataNeverTerminates(t *testing.T) {
	// worsening training-data scores are tracked but cannot trigger early
	// stopping; the final iteration still reports the best snapshot
	es := quietEarlyStopping(1)

	var stop *EarlyStopError
	for iter := 0; iter < 5; iter++ {
		env := newTestEnv(iter, 5, []EvalResult{
			validEntry("training", "l2", 1.0+float64(iter)),
		})
		err := es.Call(env)
		if iter < 4 {
			require.NoError(t, err, "training data must not trigger at iteration %d", iter)
			continue
		}
		var ok bool
		stop, ok = AsEarlyStop(err)
		require.True(t, ok, "final iteration must raise the signal, got %v", err)
	}
	require.NotNil(t, stop)
	assert.Equal(t, 0, stop.BestIteration)
	assert.Equal(t, 1.0, stop.BestScore[0].Value)
}

func TestEarlyStoppingCVAggregateTrainEntries(t *testing.T) {
	// cross-validation aggregates mark training folds with a "train " metric
	// prefix; those entries must not terminate while "valid " ones do
	es := quietEarlyStopping(2)

	var stop *EarlyStopError
	for iter := 0; iter < 6; iter++ {
		env := newTestEnv(iter, 100, []EvalResult{
			{DatasetName: "cv_agg", MetricName: "train l2", Value: 2.0 + float64(iter), HasStdv: true, Stdv: 0.1},
			{DatasetName: "cv_agg", MetricName: "valid l2", Value: 1.0, HasStdv: true, Stdv: 0.1},
		})
		err := es.Call(env)
		if err != nil {
			var ok bool
			stop, ok = AsEarlyStop(err)
			require.True(t, ok, "unexpected failure: %v", err)
			assert.Equal(t, 2, iter)
			break
		}
	}
	require.NotNil(t, stop)
	assert.Equal(t, 0, stop.BestIteration)
}

func TestEarlyStoppingFinalIteration(t *testing.T) {
	// run completes without exhausting patience: the signal is still raised,
	// carrying the best snapshot
	scores := []float64{1.0, 0.9, 0.8, 0.85}
	es := quietEarlyStopping(10)

	err, iter := driveValid(t, es, "l2", false, scores, 4)
	stop, ok := AsEarlyStop(err)
	require.True(t, ok, "expected signal on final iteration, got %v", err)
	assert.Equal(t, 3, iter)
	assert.Equal(t, 2, stop.BestIteration)
	assert.Equal(t, 0.8, stop.BestScore[0].Value)
}

func TestEarlyStoppingDartModeDisabled(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelWarn)
	es := NewEarlyStopping(5, WithLogger(logger))

	for iter := 0; iter < 3; iter++ {
		env := newTestEnv(iter, 3, []EvalResult{validEntry("valid_0", "l2", 1.0+float64(iter))})
		env.Params["boosting_type"] = "dart"
		require.NoError(t, es.Call(env), "disabled monitor must be a no-op")
	}

	assert.Equal(t, 1, logger.MessageCount("Early stopping is not available in dart mode"),
		"warning must be logged exactly once")
}

func TestEarlyStoppingRequiresEvaluationData(t *testing.T) {
	es := quietEarlyStopping(5)
	err := es.Call(newTestEnv(0, 10, nil))
	require.Error(t, err)
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
	assert.Contains(t, err.Error(), "at least one dataset and eval metric")
}

func TestEarlyStoppingReuseAcrossRuns(t *testing.T) {
	es := quietEarlyStopping(2)

	// first run stops early
	err, _ := driveValid(t, es, "l2", false, []float64{1.0, 1.1, 1.2}, 100)
	stop, ok := AsEarlyStop(err)
	require.True(t, ok)
	assert.Equal(t, 0, stop.BestIteration)

	// the raise de-initializes the monitor, so a fresh run starts clean
	err, _ = driveValid(t, es, "l2", false, []float64{5.0, 4.0, 3.0, 2.5}, 4)
	stop, ok = AsEarlyStop(err)
	require.True(t, ok, "second run must re-initialize, got %v", err)
	assert.Equal(t, 3, stop.BestIteration)
	assert.Equal(t, 2.5, stop.BestScore[0].Value)
}

func TestEarlyStoppingVerboseLogging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	es := NewEarlyStopping(2, WithLogger(logger))

	err, _ := driveValid(t, es, "l2", false, []float64{1.0, 1.1, 1.2}, 100)
	_, ok := AsEarlyStop(err)
	require.True(t, ok)

	assert.True(t, logger.ContainsMessage("Training until validation scores don't improve for 2 rounds"))
	assert.True(t, logger.ContainsMessage("Early stopping, best iteration is:"))
}

func TestEarlyStoppingMetricSuffixIdentity(t *testing.T) {
	// the comparable metric identity is the text after the last space, so a
	// "train l1" aggregate matches a first metric of "l1"
	e := EvalResult{MetricName: "train l1"}
	assert.Equal(t, "l1", e.metricSuffix())
	e = EvalResult{MetricName: "l1"}
	assert.Equal(t, "l1", e.metricSuffix())
}
