package errors

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Driver.Learn",
			kind:    "expectation failed",
			err:     fmt.Errorf("test error"),
			wantMsg: "remgo: Driver.Learn: expectation failed: test error",
		},
		{
			name:    "without original error",
			op:      "Driver.Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "remgo: Driver.Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDataError(t *testing.T) {
	err := NewDataError("dataset.Build", 1, 10, "fewer than 2 usable columns")

	want := "remgo: dataset.Build: unusable data (1 columns, 10 rows): fewer than 2 usable columns"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dataErr *DataError
	if !As(err, &dataErr) {
		t.Fatal("Error should be castable to *DataError")
	}
	if dataErr.Columns != 1 || dataErr.Rows != 10 {
		t.Errorf("unexpected fields: %+v", dataErr)
	}
}

func TestNewDegenerateRowError(t *testing.T) {
	err := NewDegenerateRowError(3, 1)

	var rowErr *DegenerateRowError
	if !As(err, &rowErr) {
		t.Fatal("Error should be castable to *DegenerateRowError")
	}
	if rowErr.Row != 3 {
		t.Errorf("Row = %d, want 3", rowErr.Row)
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("Driver", "Predict")

	want := "remgo: Driver: this model is not fitted yet. Call Learn() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestWarn(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewConvergenceWarning("Driver", 100, ""))
	Warn(NewZeroResponsibilityWarning(7, 3))

	if len(got) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(got))
	}
	if !strings.Contains(got[0].Error(), "failed to converge after 100 iterations") {
		t.Errorf("unexpected warning: %v", got[0])
	}
	if !strings.Contains(got[1].Error(), "row 7") {
		t.Errorf("unexpected warning: %v", got[1])
	}
}

func TestWarnPrefersZerolog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	SetZerologWarnFunc(func(w error) {
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			logger.Warn().EmbedObject(m).Msg(w.Error())
		}
	})
	defer SetZerologWarnFunc(nil)

	Warn(NewDuplicateStartWarning(2, 50))

	if !strings.Contains(buf.String(), `"type":"DuplicateStartWarning"`) {
		t.Errorf("expected structured warning, got %s", buf.String())
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrSingularMatrix, "solving normal equations")
	if !Is(wrapped, ErrSingularMatrix) {
		t.Error("wrapped error should match ErrSingularMatrix")
	}
	if !strings.Contains(Wrapf(ErrEmptyData, "component %d", 2).Error(), "component 2") {
		t.Error("Wrapf should format the message")
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("solve", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckNumericalStability("solve", []float64{1, math.NaN()}, 4); err == nil {
		t.Error("expected instability error for NaN")
	}
	if err := CheckScalar("variance", math.Inf(1), 1); err == nil {
		t.Error("expected instability error for Inf")
	}
}

func TestLogSumExp(t *testing.T) {
	got := LogSumExp([]float64{math.Log(1), math.Log(2), math.Log(3)})
	if math.Abs(got-math.Log(6)) > 1e-12 {
		t.Errorf("LogSumExp = %v, want %v", got, math.Log(6))
	}
	if !math.IsInf(LogSumExp(nil), -1) {
		t.Error("empty input should give -Inf")
	}
}
