// Package errors provides the error and warning system used across AnoGo.
// It is inspired by scikit-learn's exception hierarchy and carries structured
// error information suitable for zerolog output.
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
		// Default handler logs to standard error.
		log.Printf("AnoGo-Warning: %v\n", w)
	}
	// zerolog sink, injected lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the library-wide warning handler.
// Use it to silence or redirect warnings such as DataConversionWarning.
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

// SetZerologWarnFunc installs the zerolog warning sink (avoids an import cycle).
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning through the zerolog sink when one is installed,
// falling back to the plain handler otherwise.
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
//	Warning types
//
// ===========================================================================

// DataConversionWarning is emitted when input data was implicitly converted
// to another representation (for example integer features widened to float64).
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning creates a new DataConversionWarning.
func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// ConstantScoreWarning is emitted when every in-sample anomaly score is
// identical, which makes the contamination-based threshold degenerate: the
// strict score > threshold comparison will flag nothing.
type ConstantScoreWarning struct {
	Detector string
	Value    float64
}

func (w *ConstantScoreWarning) Error() string {
	return fmt.Sprintf("all training scores for %s are %.6g; the fitted threshold will classify no sample as anomalous", w.Detector, w.Value)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *ConstantScoreWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("detector", w.Detector).
		Float64("value", w.Value).
		Str("type", "ConstantScoreWarning")
}

// NewConstantScoreWarning creates a new ConstantScoreWarning.
func NewConstantScoreWarning(detector string, value float64) *ConstantScoreWarning {
	return &ConstantScoreWarning{Detector: detector, Value: value}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// NotFittedError is returned when Predict, PredictScore, Save or backend
// access is attempted on a detector that has not been fitted or loaded.
type NotFittedError struct {
	DetectorName string
	Method       string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("anogo: %s: this detector is not fitted yet. Call Fit() or Load() before using %s()", e.DetectorName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("detector_name", e.DetectorName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a new NotFittedError with a stack trace attached.
func NewNotFittedError(detectorName, method string) error {
	err := &NotFittedError{DetectorName: detectorName, Method: method}
	return errors.WithStack(err)
}

// ConfigError signals a misconfiguration: an unknown algorithm name, an
// unrecognized constructor parameter, a missing backend constructor, or a
// backend exposing no usable scoring method.
type ConfigError struct {
	Op      string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("anogo: %s: %s", e.Op, e.Message)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ConfigError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("message", e.Message).
		Str("type", "ConfigError")
}

// NewConfigError creates a new ConfigError with a stack trace attached.
func NewConfigError(op, message string) error {
	err := &ConfigError{Op: op, Message: message}
	return errors.WithStack(err)
}

// NewConfigErrorf creates a new formatted ConfigError with a stack trace attached.
func NewConfigErrorf(op, format string, args ...interface{}) error {
	return NewConfigError(op, fmt.Sprintf(format, args...))
}

// DataFormatError is returned when input data cannot be coerced into a valid
// numeric matrix. The underlying cause is preserved and exposed via Unwrap.
type DataFormatError struct {
	Op     string
	Reason string
	Err    error
}

func (e *DataFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("anogo: %s: invalid input data: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("anogo: %s: invalid input data: %s", e.Op, e.Reason)
}

func (e *DataFormatError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DataFormatError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "DataFormatError")
	if e.Err != nil {
		event.Str("cause", e.Err.Error())
	}
}

// NewDataFormatError creates a new DataFormatError wrapping cause (which may
// be nil) with a stack trace attached.
func NewDataFormatError(op, reason string, cause error) error {
	err := &DataFormatError{Op: op, Reason: reason, Err: cause}
	return errors.WithStack(err)
}

// LoadError is returned when restoring a detector fails: the container or one
// of its parts is missing or unreadable, or the adapter for a cataloged
// algorithm is not linked into the binary. The root cause is never swallowed.
type LoadError struct {
	Op   string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("anogo: %s: %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("anogo: %s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *LoadError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		Str("type", "LoadError")
	if e.Err != nil {
		event.Str("cause", e.Err.Error())
	}
}

// NewLoadError creates a new LoadError wrapping cause with a stack trace attached.
func NewLoadError(op, path string, cause error) error {
	err := &LoadError{Op: op, Path: path, Err: cause}
	return errors.WithStack(err)
}

// DimensionError is returned when the shape of the input data does not match
// what the fitted detector expects.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("anogo: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a new DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError is returned when a constructor parameter fails validation,
// for example a contamination outside [0, 1) or a non-positive tree count.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("anogo: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a new ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError is returned when an argument has an inappropriate value, for
// example predicting with no threshold available from any source.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("anogo: %s: %s", e.Op, e.Message)
}

// NewValueError creates a new ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// NumericalInstabilityError is returned when a computation produced NaN or
// Inf values, typically in backend scores.
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Context   map[string]interface{}
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("anogo: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError creates a new NumericalInstabilityError.
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
		Context:   make(map[string]interface{}),
	}
	return errors.WithStack(err)
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

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common sentinel errors
//
// ===========================================================================

var (
	// ErrEmptyData is returned when input data contains no samples.
	ErrEmptyData = New("empty data")

	// ErrNotLinked is returned when a cataloged algorithm has no registered
	// builder because its adapter package is not linked into the binary.
	ErrNotLinked = New("adapter not linked")

	// ErrMissingPart is returned when a persisted model container lacks one
	// of its required parts.
	ErrMissingPart = New("missing container part")
)
