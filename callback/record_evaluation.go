package callback

import (
	"github.com/keisho-oh/lightgbm/pkg/errors"
)

// EvalHistory is the externally-owned evaluation history store populated by
// RecordEvaluation: dataset name to metric name to the per-round values in
// append order.
//
// With a validation set named "eval" and one metric "l2", the store after
// training looks like:
//
//	EvalHistory{
//	    "training": {"l2": []float64{0.48, 0.35, ...}},
//	    "eval":     {"l2": []float64{0.48, 0.36, ...}},
//	}
type EvalHistory map[string]map[string][]float64

// RecordEvaluation appends each round's evaluation results into a
// caller-owned EvalHistory. The caller supplies the store empty before
// training and reads it back after training completes.
type RecordEvaluation struct {
	result EvalHistory
}

// NewRecordEvaluation creates the recording callback. The store must be
// non-nil; any initial contents are deleted.
func NewRecordEvaluation(result EvalHistory) (*RecordEvaluation, error) {
	if result == nil {
		return nil, errors.NewValidationError("eval_result", "should be a non-nil map", result)
	}
	for k := range result {
		delete(result, k)
	}
	return &RecordEvaluation{result: result}, nil
}

// Order implements Orderer.
func (c *RecordEvaluation) Order() int { return 20 }

// Call implements Callback.
func (c *RecordEvaluation) Call(env *Env) error {
	if len(c.result) == 0 {
		c.init(env)
	}
	for _, e := range env.EvaluationResultList {
		c.result[e.DatasetName][e.MetricName] = append(c.result[e.DatasetName][e.MetricName], e.Value)
	}
	return nil
}

// init keys the store from the first snapshot's evaluation list.
func (c *RecordEvaluation) init(env *Env) {
	for _, e := range env.EvaluationResultList {
		if _, ok := c.result[e.DatasetName]; !ok {
			c.result[e.DatasetName] = make(map[string][]float64)
		}
		if _, ok := c.result[e.DatasetName][e.MetricName]; !ok {
			c.result[e.DatasetName][e.MetricName] = nil
		}
	}
}
