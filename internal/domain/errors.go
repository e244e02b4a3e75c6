package domain

import (
	"errors"
	"fmt"
)

// Error types returned across the engine boundary. Callers inspect them with errors.As
// or the Is* helpers below; storage failures are wrapped plain errors.

// ValidationError is returned when input is rejected at write time
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// StateError is returned for an illegal period lifecycle transition
type StateError struct {
	Period Period
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s period %s: %s", e.Op, e.Period, e.Reason)
}

// NotFoundError is returned when an id is absent from the store
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConsistencyError reports stored data that contradicts itself. It is surfaced, never repaired.
type ConsistencyError struct {
	Period Period
	Reason string
}

func (e *ConsistencyError) Error() string {
	if e.Period.IsZero() {
		return "consistency check failed: " + e.Reason
	}
	return fmt.Sprintf("consistency check failed for period %s: %s", e.Period, e.Reason)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsState(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsConsistency(err error) bool {
	var target *ConsistencyError
	return errors.As(err, &target)
}
