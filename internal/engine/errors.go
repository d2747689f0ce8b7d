package engine

import (
	"errors"
	"fmt"
)

// PipelineError represents a failed resolution.
//
// Pipeline errors include:
//   - Invalid request: the empty goal (whitespace still classifies)
//   - Catalog unavailable: the catalog source failed to load
//   - Stage failed: a stage panicked
//   - Rules invalid: the rule set cannot drive a pipeline
//
// A PipelineError always means no Result was produced.
type PipelineError struct {
	// Code identifies the error category.
	Code PipelineErrorCode

	// Stage names the stage that failed, if any.
	Stage string

	// Message is a human-readable description.
	Message string

	// RequestID identifies the affected resolution.
	RequestID string

	// Err is the underlying cause, if any.
	Err error
}

// PipelineErrorCode categorizes pipeline errors.
type PipelineErrorCode string

const (
	// ErrCodeInvalidRequest indicates the goal cannot be resolved.
	ErrCodeInvalidRequest PipelineErrorCode = "INVALID_REQUEST"

	// ErrCodeCatalogUnavailable indicates the catalog failed to load.
	ErrCodeCatalogUnavailable PipelineErrorCode = "CATALOG_UNAVAILABLE"

	// ErrCodeStageFailed indicates a stage aborted the pipeline.
	ErrCodeStageFailed PipelineErrorCode = "STAGE_FAILED"

	// ErrCodeRulesInvalid indicates the rule set failed validation.
	ErrCodeRulesInvalid PipelineErrorCode = "RULES_INVALID"
)

// Error implements the error interface.
func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.RequestID != "" && e.Stage != "" {
		return fmt.Sprintf("%s: %s (request=%s, stage=%s)", e.Code, msg, e.RequestID, e.Stage)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (request=%s)", e.Code, msg, e.RequestID)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of a wrapped PipelineError, or "" for other
// errors.
func ErrorCode(err error) PipelineErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsCatalogError returns true if the catalog could not be loaded.
// Uses errors.As to handle wrapped errors.
func IsCatalogError(err error) bool {
	return ErrorCode(err) == ErrCodeCatalogUnavailable
}

// IsInvalidRequest returns true if the request itself was rejected.
func IsInvalidRequest(err error) bool {
	return ErrorCode(err) == ErrCodeInvalidRequest
}

// IsStageFailure returns true if a stage aborted the pipeline.
func IsStageFailure(err error) bool {
	return ErrorCode(err) == ErrCodeStageFailed
}

// IsRulesError returns true if the rule set was rejected.
func IsRulesError(err error) bool {
	return ErrorCode(err) == ErrCodeRulesInvalid
}
