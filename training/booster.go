// Package training provides a minimal boosting training loop wired to the
// callback framework: one snapshot per round, before/after callback phases,
// per-round evaluation of the configured datasets, and early-stopping
// detection.
//
// The model update itself is deliberately simple (a constant-prediction
// booster stepping toward the label mean); the package exists to drive the
// callback protocol against real evaluation sequences, not to grow trees.
package training

import (
	"gonum.org/v1/gonum/mat"

	"github.com/keisho-oh/lightgbm/callback"
	"github.com/keisho-oh/lightgbm/pkg/errors"
)

// Dataset couples a label vector with an optional feature matrix and the name
// under which the set appears in evaluation results.
type Dataset struct {
	Data  mat.Matrix
	Label *mat.VecDense
	Name  string
}

// NewDataset creates a named dataset. The label vector must be non-empty.
func NewDataset(label *mat.VecDense, name string) (*Dataset, error) {
	if label == nil || label.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset "+name)
	}
	return &Dataset{Label: label, Name: name}, nil
}

// Booster is the trained-so-far model handle exposed to callbacks. It keeps a
// single constant prediction that each round steps toward the training label
// mean by the active learning rate.
type Booster struct {
	params        map[string]interface{}
	trainDataName string

	prediction    float64
	numIteration  int
	bestIteration int
	bestScore     []callback.EvalResult
}

// NewBooster creates a booster over the given parameter map. The map is
// shared with the training loop's snapshots, so parameter-scheduler callbacks
// observe and mutate the same store.
func NewBooster(params map[string]interface{}, trainDataName string) *Booster {
	if params == nil {
		params = make(map[string]interface{})
	}
	if trainDataName == "" {
		trainDataName = "training"
	}
	return &Booster{
		params:        params,
		trainDataName: trainDataName,
	}
}

// ResetParameter applies a batch of new hyperparameter values for the current
// round. Implements callback.Model.
func (b *Booster) ResetParameter(params map[string]interface{}) error {
	if lr, ok := params["learning_rate"]; ok {
		v, ok := lr.(float64)
		if !ok || v <= 0 {
			return errors.NewValidationError("learning_rate", "must be a positive float", lr)
		}
	}
	for k, v := range params {
		b.params[k] = v
	}
	return nil
}

// TrainDataName implements callback.Model.
func (b *Booster) TrainDataName() string {
	return b.trainDataName
}

// LearningRate returns the learning rate active for the current round.
func (b *Booster) LearningRate() float64 {
	if lr, ok := b.params["learning_rate"].(float64); ok {
		return lr
	}
	return 0.1
}

// Predict returns the booster's prediction for n samples.
func (b *Booster) Predict(n int) *mat.VecDense {
	pred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		pred.SetVec(i, b.prediction)
	}
	return pred
}

// updateOneIter performs one boosting step: move the constant prediction
// toward the training label mean by the active learning rate.
func (b *Booster) updateOneIter(train *Dataset) {
	n := train.Label.Len()
	var residualSum float64
	for i := 0; i < n; i++ {
		residualSum += train.Label.AtVec(i) - b.prediction
	}
	b.prediction += b.LearningRate() * residualSum / float64(n)
	b.numIteration++
}

// CurrentIteration returns the number of completed boosting rounds.
func (b *Booster) CurrentIteration() int {
	return b.numIteration
}

// BestIteration returns the best iteration reported by early stopping, or the
// last iteration when the run completed without a monitor.
func (b *Booster) BestIteration() int {
	return b.bestIteration
}

// BestScore returns the evaluation result list snapshotted at the best
// iteration.
func (b *Booster) BestScore() []callback.EvalResult {
	return b.bestScore
}
