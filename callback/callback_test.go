package callback

import (
	"testing"

	"github.com/keisho-oh/lightgbm/pkg/errors"
)

// mockModel is a minimal Model for callback tests.
type mockModel struct {
	trainDataName string
	resetCalls    []map[string]interface{}
	resetErr      error
}

func (m *mockModel) ResetParameter(params map[string]interface{}) error {
	if m.resetErr != nil {
		return m.resetErr
	}
	m.resetCalls = append(m.resetCalls, params)
	return nil
}

func (m *mockModel) TrainDataName() string {
	if m.trainDataName == "" {
		return "training"
	}
	return m.trainDataName
}

func newTestEnv(iteration, endIteration int, results []EvalResult) *Env {
	return &Env{
		Model:                &mockModel{},
		Params:               map[string]interface{}{},
		Iteration:            iteration,
		BeginIteration:       0,
		EndIteration:         endIteration,
		EvaluationResultList: results,
	}
}

func validEntry(dataset, metric string, value float64) EvalResult {
	return EvalResult{DatasetName: dataset, MetricName: metric, Value: value}
}

// orderedCallback records its invocations into a shared trace.
type orderedCallback struct {
	name   string
	order  int
	before bool
	trace  *[]string
	err    error
}

func (c *orderedCallback) Call(_ *Env) error {
	*c.trace = append(*c.trace, c.name)
	return c.err
}

func (c *orderedCallback) Order() int { return c.order }

func (c *orderedCallback) BeforeIteration() bool { return c.before }

func TestListOrdering(t *testing.T) {
	var trace []string
	list := NewList(
		&orderedCallback{name: "c", order: 30, trace: &trace},
		&orderedCallback{name: "a1", order: 10, trace: &trace},
		&orderedCallback{name: "b", order: 20, trace: &trace},
		&orderedCallback{name: "a2", order: 10, trace: &trace},
	)

	env := newTestEnv(0, 10, nil)
	if err := list.AfterIteration(env); err != nil {
		t.Fatalf("AfterIteration failed: %v", err)
	}

	want := []string{"a1", "a2", "b", "c"}
	if len(trace) != len(want) {
		t.Fatalf("invoked %d callbacks, want %d", len(trace), len(want))
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("position %d: got %q, want %q (ascending priority, stable ties)", i, trace[i], want[i])
		}
	}
}

func TestListPhases(t *testing.T) {
	var trace []string
	list := NewList(
		&orderedCallback{name: "after", order: 10, trace: &trace},
		&orderedCallback{name: "before", order: 10, before: true, trace: &trace},
	)

	env := newTestEnv(0, 10, nil)
	if err := list.BeforeIteration(env); err != nil {
		t.Fatalf("BeforeIteration failed: %v", err)
	}
	if len(trace) != 1 || trace[0] != "before" {
		t.Fatalf("before phase ran %v, want only the before-phase callback", trace)
	}

	trace = trace[:0]
	if err := list.AfterIteration(env); err != nil {
		t.Fatalf("AfterIteration failed: %v", err)
	}
	if len(trace) != 1 || trace[0] != "after" {
		t.Fatalf("after phase ran %v, want only the after-phase callback", trace)
	}
}

func TestListStopsOnError(t *testing.T) {
	var trace []string
	stop := &EarlyStopError{BestIteration: 3}
	list := NewList(
		&orderedCallback{name: "first", order: 10, trace: &trace, err: stop},
		&orderedCallback{name: "second", order: 20, trace: &trace},
	)

	err := list.AfterIteration(newTestEnv(0, 10, nil))
	if err == nil {
		t.Fatal("expected propagated error")
	}
	if got, ok := AsEarlyStop(err); !ok || got.BestIteration != 3 {
		t.Fatalf("signal not propagated unchanged: %v", err)
	}
	if len(trace) != 1 {
		t.Errorf("later callbacks must not run after a signal, trace: %v", trace)
	}
}

func TestAsEarlyStop(t *testing.T) {
	stop := &EarlyStopError{BestIteration: 7, BestScore: []EvalResult{validEntry("valid_0", "l2", 0.5)}}

	wrapped := errors.Wrap(stop, "callback failed")
	got, ok := AsEarlyStop(wrapped)
	if !ok {
		t.Fatal("wrapped signal not detected")
	}
	if got.BestIteration != 7 {
		t.Errorf("BestIteration = %d, want 7", got.BestIteration)
	}

	if _, ok := AsEarlyStop(errors.New("plain failure")); ok {
		t.Error("plain error must not be detected as a signal")
	}
}

func TestFuncAdapter(t *testing.T) {
	called := false
	cb := Func(func(env *Env) error {
		called = true
		return nil
	})
	if err := NewList(cb).AfterIteration(newTestEnv(0, 1, nil)); err != nil {
		t.Fatalf("Func callback failed: %v", err)
	}
	if !called {
		t.Error("Func callback was not invoked")
	}
}

func TestEvalResultString(t *testing.T) {
	plain := validEntry("valid_0", "l2", 0.25)
	if got := plain.String(); got != "valid_0's l2: 0.25" {
		t.Errorf("String() = %q", got)
	}

	agg := EvalResult{DatasetName: "cv_agg", MetricName: "valid l2", Value: 0.25, HasStdv: true, Stdv: 0.01}
	if got := agg.String(); got != "cv_agg's valid l2: 0.25 + 0.01" {
		t.Errorf("String() = %q", got)
	}
	if got := agg.format(false); got != "cv_agg's valid l2: 0.25" {
		t.Errorf("format(false) = %q", got)
	}
}
