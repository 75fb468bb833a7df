// Package apperr holds the error kinds the catalog distinguishes. Anything that is not one of
// these is an unexpected failure and is left for the boundary layer to translate.
package apperr

import "fmt"

// InvalidFilterError is malformed list filter input.
type InvalidFilterError struct {
	Message string
}

func (e *InvalidFilterError) Error() string {
	return e.Message
}

// NotFoundError means the referenced book or external record does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// BadRequestError is a failed call to the external bibliographic service.
type BadRequestError struct {
	Message string
	Err     error
}

func (e *BadRequestError) Error() string {
	return e.Message
}

func (e *BadRequestError) Unwrap() error {
	return e.Err
}

func InvalidFilter(format string, args ...any) error {
	return &InvalidFilterError{Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

func BadRequest(err error) error {
	return &BadRequestError{Message: err.Error(), Err: err}
}
