// Package lightgbm provides a boosting training callback framework for Go:
// per-round evaluation logging, history recording, hyperparameter scheduling
// and early stopping, plus a training loop and cross-validation harness that
// drive them.
//
// # Quick Start
//
// Train with periodic logging and early stopping:
//
//	package main
//
//	import (
//	    "log"
//
//	    "gonum.org/v1/gonum/mat"
//
//	    "github.com/keisho-oh/lightgbm/callback"
//	    lglog "github.com/keisho-oh/lightgbm/pkg/log"
//	    "github.com/keisho-oh/lightgbm/training"
//	)
//
//	func main() {
//	    train, _ := training.NewDataset(mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}), "training")
//	    valid, _ := training.NewDataset(mat.NewVecDense(3, []float64{2, 3, 4}), "valid_0")
//
//	    logger := lglog.NewSlogLogger()
//	    booster, err := training.Train(nil, train, 100, []*training.Dataset{valid},
//	        callback.NewLogEvaluation(10, false, logger),
//	        callback.NewEarlyStopping(5, callback.WithLogger(logger)),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    log.Println("best iteration:", booster.BestIteration()+1)
//	}
//
// # Packages
//
//   - callback: the callback protocol, Env snapshots and the four standard
//     callbacks (LogEvaluation, RecordEvaluation, ResetParameter,
//     EarlyStopping)
//   - training: the boosting loop, datasets and the cross-validation harness
//   - metrics: evaluation metrics (MSE, RMSE, MAE)
//   - plotting: learning-curve rendering from recorded histories
//   - pkg/errors: error types, warnings and stack-trace propagation
//   - pkg/log: the structured logging interface and its slog/zerolog adapters
//
// Early stopping is a typed error value detected with errors.As; it is the
// successful exit path of a converged run, carrying the best iteration and
// the evaluation snapshot taken there.
package lightgbm
