package db

import "errors"

// DuplicateKeyError is an error type for duplicate key errors
type DuplicateKeyError struct {
	Key     string
	Message string
}

func (e *DuplicateKeyError) Error() string {
	return e.Message
}

func IsDuplicateKeyError(err error) bool {
	var e *DuplicateKeyError
	return errors.As(err, &e)
}

// Not found Error
type NotFoundError struct {
	Key     string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func IsNotFoundError(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// StaleDocumentError signals that a checkpointed write found the record
// changed since it was read. Operations on the same position are supposed to
// be serialized by the caller, so hitting this means that assumption broke.
type StaleDocumentError struct {
	Key     string
	Message string
}

func (e *StaleDocumentError) Error() string {
	return e.Message
}

func IsStaleDocumentError(err error) bool {
	var e *StaleDocumentError
	return errors.As(err, &e)
}

// InsufficientFundsError is returned by token account debits when the
// account is missing or its balance does not cover the requested amount.
type InsufficientFundsError struct {
	Key     string
	Message string
}

func (e *InsufficientFundsError) Error() string {
	return e.Message
}

func IsInsufficientFundsError(err error) bool {
	var e *InsufficientFundsError
	return errors.As(err, &e)
}
