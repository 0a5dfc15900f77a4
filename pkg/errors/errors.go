// Package errors provides the error and warning taxonomy used across remgo.
// Errors carry stack traces through cockroachdb/errors and expose structured
// fields to zerolog.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("remgo-Warning: %v\n", w)
	}
	// set by pkg/log to avoid an import cycle
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the fallback handler used by Warn when no
// structured logger has been registered.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // ignore warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc registers the structured warning function.
// Passing nil restores the fallback handler.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a non-fatal warning.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warnings
//
// ===========================================================================

// ConvergenceWarning is raised when an EM run hits its iteration cap before
// the termination test passes. The fitted parameters are still usable.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing rem_max_iteration or rem_epsilon.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject adds structured warning fields to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning creates a ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// ZeroResponsibilityWarning is raised when every mixture component assigns
// zero density to a row. The row falls back to uniform responsibilities.
type ZeroResponsibilityWarning struct {
	Row        int
	Components int
}

func (w *ZeroResponsibilityWarning) Error() string {
	return fmt.Sprintf("all %d mixture components assign zero density to row %d; using uniform responsibilities", w.Components, w.Row)
}

// MarshalZerologObject adds structured warning fields to a zerolog event.
func (w *ZeroResponsibilityWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("row", w.Row).
		Int("components", w.Components).
		Str("type", "ZeroResponsibilityWarning")
}

// NewZeroResponsibilityWarning creates a ZeroResponsibilityWarning.
func NewZeroResponsibilityWarning(row, components int) *ZeroResponsibilityWarning {
	return &ZeroResponsibilityWarning{Row: row, Components: components}
}

// DuplicateStartWarning is raised when mixture initialization runs out of
// retries and accepts a starting point equal to an earlier component's.
type DuplicateStartWarning struct {
	Component int
	Retries   int
}

func (w *DuplicateStartWarning) Error() string {
	return fmt.Sprintf("component %d accepted a duplicate starting point after %d retries", w.Component, w.Retries)
}

// MarshalZerologObject adds structured warning fields to a zerolog event.
func (w *DuplicateStartWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("component", w.Component).
		Int("retries", w.Retries).
		Str("type", "DuplicateStartWarning")
}

// NewDuplicateStartWarning creates a DuplicateStartWarning.
func NewDuplicateStartWarning(component, retries int) *DuplicateStartWarning {
	return &DuplicateStartWarning{Component: component, Retries: retries}
}

// ===========================================================================
//
//	Structured errors
//
// ===========================================================================

// NotFittedError is returned when Predict or Score is called before a
// successful Learn.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("remgo: %s: this model is not fitted yet. Call Learn() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DataError reports a dataset that cannot support a fit: fewer than two
// usable columns or no usable rows after the existence pass.
type DataError struct {
	Op      string
	Columns int
	Rows    int
	Reason  string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("remgo: %s: unusable data (%d columns, %d rows): %s", e.Op, e.Columns, e.Rows, e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("columns", e.Columns).
		Int("rows", e.Rows).
		Str("reason", e.Reason).
		Str("type", "DataError")
}

// NewDataError creates a DataError with a stack trace.
func NewDataError(op string, columns, rows int, reason string) error {
	err := &DataError{Op: op, Columns: columns, Rows: rows, Reason: reason}
	return errors.WithStack(err)
}

// DegenerateRowError is returned by the reversible row estimator when the
// response cannot be solved for because 1-c vanishes.
type DegenerateRowError struct {
	Row int
	C   float64
}

func (e *DegenerateRowError) Error() string {
	return fmt.Sprintf("remgo: degenerate reversible system at row %d (c=%g)", e.Row, e.C)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DegenerateRowError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("row", e.Row).
		Float64("c", e.C).
		Str("type", "DegenerateRowError")
}

// NewDegenerateRowError creates a DegenerateRowError with a stack trace.
func NewDegenerateRowError(row int, c float64) error {
	err := &DegenerateRowError{Row: row, C: c}
	return errors.WithStack(err)
}

// ValidationError reports an invalid option or configuration value.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("remgo: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError reports an argument with an unusable value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("remgo: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// DimensionError reports a vector whose length does not match the model.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("remgo: %s: dimension mismatch. Expected %d, got %d", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// ModelError is a general fitting failure wrapping its cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remgo: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("remgo: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Sentinel errors
//
// ===========================================================================

var (
	// ErrEmptyData is returned when no rows are available.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned by the linear kernel when a system has no
	// unique solution. The maximizer recovers from it locally.
	ErrSingularMatrix = New("singular matrix")

	// ErrAllComponentsFailed is returned when every mixture component drops out.
	ErrAllComponentsFailed = New("all mixture components failed")
)
