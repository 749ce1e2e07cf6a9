package callback

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
)

// Callback observes one training round through the Env snapshot.
//
// A callback either returns nil (continue training, possibly after side
// effects such as logging, mutating an external store or reassigning
// hyperparameters) or returns an error. A returned *EarlyStopError stops the
// run; any other error is a genuine failure.
type Callback interface {
	Call(env *Env) error
}

// Orderer is implemented by callbacks that declare an invocation priority.
// Callbacks run in ascending order; ties keep registration order. Callbacks
// without an order run first.
type Orderer interface {
	Order() int
}

// BeforeIterationer is implemented by callbacks that must run before the
// model update step of each round, e.g. parameter schedulers whose new values
// have to be in effect for that round's update.
type BeforeIterationer interface {
	BeforeIteration() bool
}

// EarlyStopError is the termination signal raised by the early-stopping
// monitor (or any custom callback). It carries the best iteration observed and
// the full evaluation result list at that iteration, regardless of whether it
// was triggered by patience exhaustion or by run completion.
//
// The training loop must detect it with errors.As (or AsEarlyStop), stop
// iterating and expose both fields on the resulting model. It is an
// operational signal, not a failure.
type EarlyStopError struct {
	BestIteration int
	BestScore     []EvalResult
}

func (e *EarlyStopError) Error() string {
	return fmt.Sprintf("early stopping at best iteration %d", e.BestIteration+1)
}

// AsEarlyStop reports whether err carries an early-stop signal, unwrapping as
// needed.
func AsEarlyStop(err error) (*EarlyStopError, bool) {
	var stop *EarlyStopError
	if errors.As(err, &stop) {
		return stop, true
	}
	return nil, false
}

// List invokes a set of callbacks each round, partitioned by phase and sorted
// by priority.
type List struct {
	before []Callback
	after  []Callback
}

// NewList builds an invocation list from the given callbacks. Callbacks are
// partitioned into the before-update and after-update phases, then each phase
// is stably sorted by ascending order so that same-priority callbacks keep
// their registration order.
func NewList(callbacks ...Callback) *List {
	l := &List{}
	for _, cb := range callbacks {
		if runsBefore(cb) {
			l.before = append(l.before, cb)
		} else {
			l.after = append(l.after, cb)
		}
	}
	sort.SliceStable(l.before, func(i, j int) bool {
		return orderOf(l.before[i]) < orderOf(l.before[j])
	})
	sort.SliceStable(l.after, func(i, j int) bool {
		return orderOf(l.after[i]) < orderOf(l.after[j])
	})
	return l
}

// BeforeIteration runs the before-update phase for one round. The first error
// is propagated unchanged and the remaining callbacks of the round are not
// invoked.
func (l *List) BeforeIteration(env *Env) error {
	return call(l.before, env)
}

// AfterIteration runs the after-update phase for one round. The first error is
// propagated unchanged and the remaining callbacks of the round are not
// invoked.
func (l *List) AfterIteration(env *Env) error {
	return call(l.after, env)
}

func call(callbacks []Callback, env *Env) error {
	for _, cb := range callbacks {
		if err := cb.Call(env); err != nil {
			return err
		}
	}
	return nil
}

func runsBefore(cb Callback) bool {
	if b, ok := cb.(BeforeIterationer); ok {
		return b.BeforeIteration()
	}
	return false
}

func orderOf(cb Callback) int {
	if o, ok := cb.(Orderer); ok {
		return o.Order()
	}
	return 0
}

// Func adapts a plain function to the Callback interface, for ad-hoc callbacks
// that need no priority or phase declaration.
type Func func(env *Env) error

// Call implements Callback.
func (f Func) Call(env *Env) error {
	return f(env)
}
