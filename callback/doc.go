// Package callback implements the training callback framework used by the
// boosting training loop.
//
// Each boosting round the training loop builds one Env snapshot and feeds it to
// the registered callbacks, first those declared to run before the model update,
// then the rest after evaluation. Callbacks may log the snapshot, record it into
// an externally-owned history, reassign hyperparameters, or stop the run.
//
// The provided callbacks mirror the classic boosting callback set:
//
//   - LogEvaluation periodically emits the evaluation results
//   - RecordEvaluation appends evaluation results into a caller-owned store
//   - ResetParameter reassigns hyperparameters per round from a schedule
//   - EarlyStopping stops the run when validation scores stop improving
//
// Early stopping is signalled with a typed error value:
//
//	booster, err := training.Train(params, train, 100, validSets,
//	    callback.NewEarlyStopping(10),
//	)
//
// The training loop detects *EarlyStopError with errors.As, stops iterating and
// exposes the carried best iteration and score on the resulting model. The
// signal is the designed successful exit path of a converged run, not a failure.
package callback
