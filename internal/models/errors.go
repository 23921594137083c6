package models

import (
	"errors"
	"fmt"
)

// ValidationError represents a data validation failure.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

// NotFoundError indicates a specific resource query yielded no result.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}

// CapabilityError indicates a required external collaborator is not
// configured. Distinct from NotFoundError: the query was never attempted.
type CapabilityError struct {
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability unavailable: %s", e.Capability)
}

func (e *CapabilityError) IsTransient() bool {
	return false
}

// InsufficientDataError indicates an aggregate was requested over a window
// that contained no valid samples.
type InsufficientDataError struct {
	Operation string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: no valid data", e.Operation)
}

func (e *InsufficientDataError) IsTransient() bool {
	return false
}

// StoreError indicates the durable cache store could not be opened, read or
// written. Cache readers treat it as a miss; cache writers swallow it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("cache store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsTransient returns true: the store may become readable again.
func (e *StoreError) IsTransient() bool {
	return true
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsCapabilityUnavailable reports whether err is a CapabilityError.
func IsCapabilityUnavailable(err error) bool {
	var target *CapabilityError
	return errors.As(err, &target)
}

// IsInsufficientData reports whether err is an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}

// IsStoreUnavailable reports whether err is a StoreError.
func IsStoreUnavailable(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}
