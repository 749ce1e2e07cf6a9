package callback

import (
	"fmt"

	"github.com/keisho-oh/lightgbm/pkg/log"
)

// LogEvaluation periodically logs the evaluation results of a round.
//
// On iterations where (iteration+1) is a multiple of the period and the
// evaluation list is non-empty, one info line is emitted in the form
//
//	[<iteration+1>]	<dataset>'s <metric>: <value>	...
//
// with entries joined by tabs. Aggregated entries show their standard
// deviation as " + <stdev>" when ShowStdv is set.
type LogEvaluation struct {
	Period   int
	ShowStdv bool

	logger log.Logger
}

// NewLogEvaluation creates the evaluation logger callback. A period of 1 logs
// every round; a period <= 0 disables logging entirely.
func NewLogEvaluation(period int, showStdv bool, logger log.Logger) *LogEvaluation {
	return &LogEvaluation{
		Period:   period,
		ShowStdv: showStdv,
		logger:   logger,
	}
}

// Order implements Orderer.
func (c *LogEvaluation) Order() int { return 10 }

// Call implements Callback.
func (c *LogEvaluation) Call(env *Env) error {
	if c.Period <= 0 || len(env.EvaluationResultList) == 0 || (env.Iteration+1)%c.Period != 0 {
		return nil
	}
	c.logger.Info(
		fmt.Sprintf("[%d]\t%s", env.Iteration+1, formatEvalResults(env.EvaluationResultList, c.ShowStdv)),
		log.IterationKey, env.Iteration,
	)
	return nil
}
