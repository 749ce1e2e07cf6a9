package training

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/keisho-oh/lightgbm/callback"
	"github.com/keisho-oh/lightgbm/pkg/errors"
)

// CVFold holds the train/test index split of one fold.
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold splits a sample range into k consecutive folds, optionally shuffled.
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a k-fold splitter.
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 5 // Default to 5-fold
	}
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// Split generates train/test indices for each fold over nSamples samples.
func (kf *KFold) Split(nSamples int) []CVFold {
	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]CVFold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	currentIdx := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[currentIdx:currentIdx+testSize])

		trainIndices := make([]int, 0, nSamples-testSize)
		trainIndices = append(trainIndices, indices[:currentIdx]...)
		trainIndices = append(trainIndices, indices[currentIdx+testSize:]...)

		folds[i] = CVFold{
			TrainIndices: trainIndices,
			TestIndices:  testIndices,
		}

		currentIdx += testSize
	}

	return folds
}

// CVBooster is the model handle seen by callbacks during cross-validation.
// Parameter updates fan out to every fold's booster.
type CVBooster struct {
	boosters []*Booster
}

// ResetParameter implements callback.Model by applying the batch to every
// fold.
func (cv *CVBooster) ResetParameter(params map[string]interface{}) error {
	for _, b := range cv.boosters {
		if err := b.ResetParameter(params); err != nil {
			return err
		}
	}
	return nil
}

// TrainDataName implements callback.Model. Cross-validation aggregates mark
// training-fold entries through the metric name prefix instead, so the
// dataset name never matches.
func (cv *CVBooster) TrainDataName() string {
	return "training"
}

// Boosters returns the per-fold boosters.
func (cv *CVBooster) Boosters() []*Booster {
	return cv.boosters
}

// CVResult is the aggregated cross-validation history: for every metric the
// per-round mean and standard deviation across folds, keyed
// "valid <metric>-mean" and "valid <metric>-stdv".
type CVResult map[string][]float64

// CrossValidate trains one booster per fold in lockstep and aggregates the
// per-round metrics across folds into mean/stdv entries.
//
// Each round the callbacks observe a snapshot whose evaluation entries are
// cross-validation aggregates: dataset "cv_agg", metric names prefixed with
// "train " or "valid ", and the across-fold standard deviation carried
// alongside each mean. An early-stopping callback therefore monitors the
// aggregated validation trend, ignoring the training folds.
func CrossValidate(params map[string]interface{}, data *Dataset, numBoostRound, nfold int, callbacks ...callback.Callback) (CVResult, *CVBooster, error) {
	if data == nil || data.Label == nil || data.Label.Len() == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "cv data")
	}
	if nfold < 2 {
		return nil, nil, errors.NewValueErrorf("cv", "nfold must be at least 2, got %d", nfold)
	}
	if nfold > data.Label.Len() {
		return nil, nil, errors.NewValueErrorf("cv",
			"nfold (%d) cannot exceed the number of samples (%d)", nfold, data.Label.Len())
	}
	if params == nil {
		params = make(map[string]interface{})
	}
	metricNames, err := resolveMetrics(params)
	if err != nil {
		return nil, nil, err
	}

	seed := 0
	if s, ok := params["seed"].(int); ok {
		seed = s
	}
	kf := NewKFold(nfold, true, seed)
	folds := kf.Split(data.Label.Len())

	cvBooster := &CVBooster{}
	trainSets := make([]*Dataset, len(folds))
	testSets := make([]*Dataset, len(folds))
	for i, fold := range folds {
		trainSets[i] = subset(data, fold.TrainIndices, fmt.Sprintf("train_fold_%d", i))
		testSets[i] = subset(data, fold.TestIndices, fmt.Sprintf("valid_fold_%d", i))
		cvBooster.boosters = append(cvBooster.boosters, NewBooster(copyParams(params), trainSets[i].Name))
	}

	cbList := callback.NewList(callbacks...)
	result := make(CVResult)

	for iter := 0; iter < numBoostRound; iter++ {
		env := &callback.Env{
			Model:          cvBooster,
			Params:         params,
			Iteration:      iter,
			BeginIteration: 0,
			EndIteration:   numBoostRound,
		}

		if err := cbList.BeforeIteration(env); err != nil {
			if _, ok := callback.AsEarlyStop(err); ok {
				return result, cvBooster, nil
			}
			return nil, nil, err
		}

		for i, b := range cvBooster.boosters {
			b.updateOneIter(trainSets[i])
		}

		env.EvaluationResultList, err = aggregateFolds(cvBooster.boosters, trainSets, testSets, metricNames)
		if err != nil {
			return nil, nil, err
		}
		for _, e := range env.EvaluationResultList {
			if !e.HasStdv {
				continue
			}
			result[e.MetricName+"-mean"] = append(result[e.MetricName+"-mean"], e.Value)
			result[e.MetricName+"-stdv"] = append(result[e.MetricName+"-stdv"], e.Stdv)
		}

		if err := cbList.AfterIteration(env); err != nil {
			if stop, ok := callback.AsEarlyStop(err); ok {
				truncate(result, stop.BestIteration+1)
				return result, cvBooster, nil
			}
			return nil, nil, err
		}
	}

	return result, cvBooster, nil
}

// aggregateFolds evaluates every fold and reduces each metric to its
// across-fold mean and standard deviation, training folds first.
func aggregateFolds(boosters []*Booster, trainSets, testSets []*Dataset, metricNames []string) ([]callback.EvalResult, error) {
	var results []callback.EvalResult
	for _, group := range []struct {
		prefix string
		sets   []*Dataset
	}{
		{"train", trainSets},
		{"valid", testSets},
	} {
		for _, name := range metricNames {
			values := make([]float64, len(boosters))
			for i, b := range boosters {
				ds := group.sets[i]
				value, err := evalMetric(name, ds, b.Predict(ds.Label.Len()))
				if err != nil {
					return nil, errors.Wrapf(err, "evaluating %s on %s", name, ds.Name)
				}
				values[i] = value
			}
			results = append(results, callback.EvalResult{
				DatasetName: "cv_agg",
				MetricName:  group.prefix + " " + name,
				Value:       stat.Mean(values, nil),
				HasStdv:     true,
				Stdv:        stat.PopStdDev(values, nil),
			})
		}
	}
	return results, nil
}

func subset(data *Dataset, indices []int, name string) *Dataset {
	label := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		label.SetVec(i, data.Label.AtVec(idx))
	}
	return &Dataset{Label: label, Name: name}
}

func copyParams(params map[string]interface{}) map[string]interface{} {
	cp := make(map[string]interface{}, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return cp
}

func truncate(result CVResult, n int) {
	for k, v := range result {
		if len(v) > n {
			result[k] = v[:n]
		}
	}
}
