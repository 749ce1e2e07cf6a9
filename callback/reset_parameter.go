package callback

import (
	"github.com/keisho-oh/lightgbm/pkg/errors"
)

// Schedule yields a hyperparameter value for a given round offset within the
// run. Implementations are either a fixed per-round sequence or a function of
// the round offset.
type Schedule interface {
	value(round, numRounds int) (interface{}, error)
}

// sequenceSchedule holds one explicit value per boosting round.
type sequenceSchedule struct {
	values []interface{}
}

func (s sequenceSchedule) value(round, numRounds int) (interface{}, error) {
	if len(s.values) != numRounds {
		return nil, errors.NewValueErrorf("reset_parameter",
			"length of list has to equal to 'num_boost_round' (%d), got %d", numRounds, len(s.values))
	}
	return s.values[round], nil
}

// Sequence builds a Schedule from one explicit value per boosting round. The
// sequence length must equal the number of boosting rounds of the run.
func Sequence(values ...interface{}) Schedule {
	return sequenceSchedule{values: values}
}

// FloatSequence builds a Schedule from per-round float64 values, the common
// case for learning-rate decay lists.
func FloatSequence(values []float64) Schedule {
	vs := make([]interface{}, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return sequenceSchedule{values: vs}
}

// ScheduleFunc adapts a function of the round offset to a Schedule, e.g.
//
//	callback.ScheduleFunc(func(round int) interface{} {
//	    return 0.1 * math.Pow(0.99, float64(round))
//	})
type ScheduleFunc func(round int) interface{}

func (f ScheduleFunc) value(round, _ int) (interface{}, error) {
	return f(round), nil
}

// ResetParameter reassigns hyperparameters each round from the configured
// schedules. Values that differ from the currently active ones are applied to
// the model in one batch and reflected into the snapshot's parameter map. It
// runs in the before-update phase so the new values are in effect for that
// round's update.
//
// Note that the initial parameter values still take effect on the first
// iteration's comparison: only values that differ are reassigned.
type ResetParameter struct {
	schedules map[string]Schedule
}

// NewResetParameter creates the parameter scheduler callback from a mapping of
// parameter name to schedule.
func NewResetParameter(schedules map[string]Schedule) *ResetParameter {
	return &ResetParameter{schedules: schedules}
}

// Order implements Orderer.
func (c *ResetParameter) Order() int { return 10 }

// BeforeIteration implements BeforeIterationer.
func (c *ResetParameter) BeforeIteration() bool { return true }

// Call implements Callback.
func (c *ResetParameter) Call(env *Env) error {
	newParams := make(map[string]interface{})
	for key, schedule := range c.schedules {
		newValue, err := schedule.value(env.Iteration-env.BeginIteration, env.EndIteration-env.BeginIteration)
		if err != nil {
			return errors.Wrapf(err, "parameter %q", key)
		}
		if newValue != env.Params[key] {
			newParams[key] = newValue
		}
	}
	if len(newParams) == 0 {
		return nil
	}
	if err := env.Model.ResetParameter(newParams); err != nil {
		return err
	}
	for k, v := range newParams {
		env.Params[k] = v
	}
	return nil
}
