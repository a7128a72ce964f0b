package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
)

// StoreError marks a persistence failure. The current operation is aborted and
// the next trigger is expected to retry.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// DeliveryError marks a failed notification attempt. Status is the HTTP status
// returned by the endpoint, 0 on network failure.
type DeliveryError struct {
	Status int
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("delivery failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func IsDeliveryError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}
