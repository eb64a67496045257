package params

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnknownParameter indicates a lookup for a name that was never registered.
	ErrUnknownParameter = errors.New("params: unknown parameter")
	// ErrTypeMismatch indicates a typed access with a type other than the one
	// the parameter was registered with.
	ErrTypeMismatch = errors.New("params: type mismatch")
	// ErrDuplicateParameter indicates a name or alias registered twice.
	ErrDuplicateParameter = errors.New("params: duplicate parameter")
	// ErrParameterNameRequired indicates a registration without a name.
	ErrParameterNameRequired = errors.New("params: parameter name must be provided")
	// ErrConstraintViolation matches every fatal ViolationError.
	ErrConstraintViolation = errors.New("params: constraint violation")
	// ErrUnknownProgram indicates a restore for a program that has no cached settings.
	ErrUnknownProgram = errors.New("params: unknown program")
	// ErrEmptyConstraint indicates a constraint that names no parameters.
	ErrEmptyConstraint = errors.New("params: constraint must name at least one parameter")
	// ErrMessageRequired indicates a value check without an error message.
	ErrMessageRequired = errors.New("params: error message must be provided")
)

// UnknownParameterError is returned when name is not present in a Store.
type UnknownParameterError struct {
	Name string
}

func (e UnknownParameterError) Error() string {
	return "params: unknown parameter " + strconv.Quote(e.Name)
}

// Is reports whether target is ErrUnknownParameter.
func (e UnknownParameterError) Is(target error) bool {
	return target == ErrUnknownParameter
}

// TypeMismatchError is returned when a parameter is accessed with the wrong type.
type TypeMismatchError struct {
	Name string
	Want string
	Got  string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("params: parameter %q holds %s, requested %s", e.Name, e.Got, e.Want)
}

// Is reports whether target is ErrTypeMismatch.
func (e TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// UnknownProgramError is returned by Settings.Restore when no snapshot exists.
type UnknownProgramError struct {
	Program string
}

func (e UnknownProgramError) Error() string {
	return "params: no cached settings for program " + strconv.Quote(e.Program)
}

// Is reports whether target is ErrUnknownProgram.
func (e UnknownProgramError) Is(target error) bool {
	return target == ErrUnknownProgram
}

// ViolationError carries the diagnostic of a fatal constraint violation. The
// invocation boundary treats it as the signal to skip the program body.
type ViolationError struct {
	Diagnostic Diagnostic
}

func (e *ViolationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("params: %s violated: %s", e.Diagnostic.Constraint, e.Diagnostic.Message)
}

// Is reports whether target is ErrConstraintViolation.
func (e *ViolationError) Is(target error) bool {
	return target == ErrConstraintViolation
}

// Message returns the user-facing diagnostic text.
func (e *ViolationError) Message() string {
	if e == nil {
		return ""
	}
	return e.Diagnostic.Message
}

// AsViolation extracts a ViolationError from err.
func AsViolation(err error) (*ViolationError, bool) {
	var violation *ViolationError
	if errors.As(err, &violation) {
		return violation, true
	}
	return nil, false
}
