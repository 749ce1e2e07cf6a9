package training

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/keisho-oh/lightgbm/callback"
	"github.com/keisho-oh/lightgbm/metrics"
	"github.com/keisho-oh/lightgbm/pkg/errors"
)

// Train runs the boosting loop for numBoostRound rounds, invoking the given
// callbacks around every model update.
//
// Each round one snapshot is built and fed to the callbacks: first the
// before-update phase, then the model update, then evaluation of the
// validation sets, then the after-update phase. A validation set whose name
// equals the training dataset's name is tracked by the early-stopping monitor
// but never terminates the run on its own.
//
// An *callback.EarlyStopError raised by any callback stops the loop; the
// carried best iteration and score are exposed on the returned Booster. Any
// other callback error fails the run.
func Train(params map[string]interface{}, trainSet *Dataset, numBoostRound int, validSets []*Dataset, callbacks ...callback.Callback) (*Booster, error) {
	if trainSet == nil || trainSet.Label == nil || trainSet.Label.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "training data")
	}
	if numBoostRound <= 0 {
		return nil, errors.NewValueError("train", "num_boost_round must be positive")
	}
	if params == nil {
		params = make(map[string]interface{})
	}

	trainName := trainSet.Name
	if trainName == "" {
		trainName = "training"
	}
	for i, ds := range validSets {
		if ds == nil || ds.Label == nil || ds.Label.Len() == 0 {
			return nil, errors.Wrapf(errors.ErrEmptyData, "validation data %d", i)
		}
		if ds.Name == "" {
			ds.Name = fmt.Sprintf("valid_%d", i)
		}
	}

	booster := NewBooster(params, trainName)
	metricNames, err := resolveMetrics(params)
	if err != nil {
		return nil, err
	}

	cbList := callback.NewList(callbacks...)

	var lastEval []callback.EvalResult
	for iter := 0; iter < numBoostRound; iter++ {
		env := &callback.Env{
			Model:          booster,
			Params:         params,
			Iteration:      iter,
			BeginIteration: 0,
			EndIteration:   numBoostRound,
		}

		if err := cbList.BeforeIteration(env); err != nil {
			if stopped := applyEarlyStop(booster, err); stopped {
				return booster, nil
			}
			return nil, err
		}

		booster.updateOneIter(trainSet)

		env.EvaluationResultList, err = evaluateSets(booster, validSets, metricNames)
		if err != nil {
			return nil, err
		}
		lastEval = env.EvaluationResultList

		if err := cbList.AfterIteration(env); err != nil {
			if stopped := applyEarlyStop(booster, err); stopped {
				return booster, nil
			}
			return nil, err
		}
	}

	booster.bestIteration = numBoostRound - 1
	booster.bestScore = lastEval
	return booster, nil
}

// applyEarlyStop exposes a termination signal's payload on the booster.
// Returns false when err is a genuine failure.
func applyEarlyStop(booster *Booster, err error) bool {
	stop, ok := callback.AsEarlyStop(err)
	if !ok {
		return false
	}
	booster.bestIteration = stop.BestIteration
	booster.bestScore = stop.BestScore
	return true
}

// evaluateSets computes every configured metric on every evaluation dataset,
// dataset-major, keeping the same order every round.
func evaluateSets(booster *Booster, validSets []*Dataset, metricNames []string) ([]callback.EvalResult, error) {
	if len(validSets) == 0 {
		return nil, nil
	}
	results := make([]callback.EvalResult, 0, len(validSets)*len(metricNames))
	for _, ds := range validSets {
		pred := booster.Predict(ds.Label.Len())
		for _, name := range metricNames {
			value, err := evalMetric(name, ds, pred)
			if err != nil {
				return nil, errors.Wrapf(err, "evaluating %s on %s", name, ds.Name)
			}
			results = append(results, callback.EvalResult{
				DatasetName: ds.Name,
				MetricName:  name,
				Value:       value,
			})
		}
	}
	return results, nil
}

func evalMetric(name string, ds *Dataset, pred *mat.VecDense) (float64, error) {
	switch name {
	case "l2", "mse":
		return metrics.MSE(ds.Label, pred)
	case "rmse":
		return metrics.RMSE(ds.Label, pred)
	case "l1", "mae":
		return metrics.MAE(ds.Label, pred)
	default:
		return 0, errors.NewValueErrorf("train", "unknown metric %q", name)
	}
}

// resolveMetrics reads the metric configuration: a single name, a list of
// names, or the objective's default.
func resolveMetrics(params map[string]interface{}) ([]string, error) {
	switch v := params["metric"].(type) {
	case nil:
		return []string{defaultMetric(params)}, nil
	case string:
		return []string{v}, nil
	case []string:
		if len(v) == 0 {
			return []string{defaultMetric(params)}, nil
		}
		return v, nil
	default:
		return nil, errors.NewValidationError("metric", "must be a string or a list of strings", v)
	}
}

func defaultMetric(params map[string]interface{}) string {
	if obj, ok := params["objective"].(string); ok {
		switch obj {
		case "regression_l1", "l1", "mae":
			return "l1"
		}
	}
	return "l2"
}
