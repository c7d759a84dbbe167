package domain

import (
	"errors"
	"fmt"
)

// RuleError reports a domain-rule violation from an aggregate mutation.
// Handlers surface it to callers (typically as a 4xx response); it is never
// retriable.
type RuleError struct {
	Op      string
	Message string
}

func (e *RuleError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// NewRuleError constructs a rule violation for the given operation.
func NewRuleError(op, format string, args ...any) *RuleError {
	return &RuleError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// IsRuleError reports whether err is a domain-rule violation.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

// StoreErrorCode classifies infrastructure failures emitted by stores.
type StoreErrorCode string

// Store error codes. The retriable subset mirrors the transient codes the
// underlying document database reports under contention or partial outage.
const (
	CodeAborted           StoreErrorCode = "aborted"
	CodeCancelled         StoreErrorCode = "cancelled"
	CodeDeadlineExceeded  StoreErrorCode = "deadline-exceeded"
	CodeInternal          StoreErrorCode = "internal"
	CodeResourceExhausted StoreErrorCode = "resource-exhausted"
	CodeUnavailable       StoreErrorCode = "unavailable"
	CodeNotFound          StoreErrorCode = "not-found"
	CodeAlreadyExists     StoreErrorCode = "already-exists"
	CodeInvalidArgument   StoreErrorCode = "invalid-argument"
)

// StoreError is an infrastructure failure carrying a classification code.
type StoreError struct {
	Code StoreErrorCode
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err with a store classification code.
func NewStoreError(code StoreErrorCode, err error) *StoreError {
	return &StoreError{Code: code, Err: err}
}

// StoreCode extracts the classification code from err, or empty if none.
func StoreCode(err error) StoreErrorCode {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// ErrNotFound is returned when reference validation fails within
// transactional helpers.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
