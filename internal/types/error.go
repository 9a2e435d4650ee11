package types

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

func (e ErrorCode) String() string {
	return string(e)
}

const (
	// Validation errors: rejected before any state mutation, never retried.
	InsufficientDepositAmount ErrorCode = "INSUFFICIENT_DEPOSIT_AMOUNT"
	InsufficientBalance       ErrorCode = "INSUFFICIENT_BALANCE"
	InvalidRequest            ErrorCode = "INVALID_REQUEST"

	// Transfer errors: the underlying asset movement could not complete.
	TransferFailed ErrorCode = "TRANSFER_FAILED"

	// AlreadyExists is success-equivalent for vault creation.
	AlreadyExists ErrorCode = "ALREADY_EXISTS"

	NotFound ErrorCode = "NOT_FOUND"

	// InvariantViolation indicates a bug elsewhere in the system
	// (custody shortfall, bypassed per-record serialization). Fatal.
	InvariantViolation ErrorCode = "INVARIANT_VIOLATION"

	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
)

// Error is the error kind surfaced by engine operations. It carries the
// taxonomy code so callers can distinguish validation failures from transfer
// failures and invariant violations without string matching.
type Error struct {
	Err        error
	StatusCode int
	ErrorCode  ErrorCode
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.ErrorCode, e.Err.Error())
	}
	return e.ErrorCode.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	return &Error{
		Err:        err,
		StatusCode: statusCode,
		ErrorCode:  errorCode,
	}
}

func NewValidationFailedError(errorCode ErrorCode, err error) *Error {
	return NewError(http.StatusBadRequest, errorCode, err)
}

func NewNotFoundError(err error) *Error {
	return NewError(http.StatusNotFound, NotFound, err)
}

func NewTransferFailedError(err error) *Error {
	return NewError(http.StatusUnprocessableEntity, TransferFailed, err)
}

// NewInvariantViolationError must never be swallowed by callers; it means the
// accounting state and the custody ledger disagree.
func NewInvariantViolationError(err error) *Error {
	return NewError(http.StatusInternalServerError, InvariantViolation, err)
}

func NewInternalServiceError(err error) *Error {
	return NewError(http.StatusInternalServerError, InternalServiceError, err)
}

// ErrorCodeOf extracts the taxonomy code from err, falling back to
// InternalServiceError for untyped errors.
func ErrorCodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrorCode
	}
	return InternalServiceError
}
