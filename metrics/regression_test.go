package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMSE(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{1, 2, 3, 6})

	got, err := MSE(yTrue, yPred)
	if err != nil {
		t.Fatalf("MSE failed: %v", err)
	}
	if got != 1.0 {
		t.Errorf("MSE = %g, want 1.0", got)
	}
}

func TestMSEEmptyVector(t *testing.T) {
	empty := &mat.VecDense{}

	if _, err := MSE(empty, empty); err == nil {
		t.Error("expected error for empty vectors")
	}
}

func TestMSEDimensionMismatch(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{1, 2, 3})
	yPred := mat.NewVecDense(2, []float64{1, 2})

	if _, err := MSE(yTrue, yPred); err == nil {
		t.Error("expected dimension error")
	}
}

func TestRMSE(t *testing.T) {
	yTrue := mat.NewVecDense(2, []float64{0, 0})
	yPred := mat.NewVecDense(2, []float64{3, 3})

	got, err := RMSE(yTrue, yPred)
	if err != nil {
		t.Fatalf("RMSE failed: %v", err)
	}
	if got != 3.0 {
		t.Errorf("RMSE = %g, want 3.0", got)
	}
}

func TestMAE(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{2, 1, 4, 3})

	got, err := MAE(yTrue, yPred)
	if err != nil {
		t.Fatalf("MAE failed: %v", err)
	}
	if math.Abs(got-1.0) > 1e-12 {
		t.Errorf("MAE = %g, want 1.0", got)
	}
}
