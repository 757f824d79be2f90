package domain

import (
	"errors"
	"fmt"
)

// Motivos de falha do fluxo de reservas. Sempre retornam embrulhados em um
// dos tipos abaixo: o motivo casa com errors.Is e a categoria com os
// helpers Is*.
var (
	ErrSeatNotFound       = errors.New("seat not found")
	ErrOldSeatNotFound    = errors.New("old seat not found")
	ErrSeatAlreadyBooked  = errors.New("seat already booked")
	ErrSeatNotAvailable   = errors.New("seat not available")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrTransferNotAllowed = errors.New("transfer not allowed")
	ErrBusNotFound        = errors.New("bus not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrSeatCountMismatch  = errors.New("seat count mismatch")
	ErrBusHasBookedSeats  = errors.New("bus has booked seats")
)

type NotFoundError struct {
	Resource string
	Msg      string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "internal error"
	}
}

func (e InternalError) Unwrap() error { return e.Err }

func NotFound(resource string, reason error, format string, args ...any) error {
	return NotFoundError{Resource: resource, Msg: fmt.Sprintf(format, args...), Err: reason}
}

func Conflict(resource string, reason error, format string, args ...any) error {
	return ConflictError{Resource: resource, Msg: fmt.Sprintf(format, args...), Err: reason}
}

func Invalid(field, msg string) error {
	return ValidationError{Field: field, Msg: msg}
}

// Internal embrulha uma falha inesperada de persistência. Erros que já têm
// categoria voltam intactos.
func Internal(msg string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsValidation(err) || IsConflict(err) || IsInternal(err) {
		return err
	}
	return InternalError{Msg: msg, Err: err}
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
