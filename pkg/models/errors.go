package models

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes surfaced to callers. Internal exception detail never crosses
// this boundary; the code plus a localized message is the whole contract.
const (
	CodeStateError      = "STATE_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeTemplateError   = "TEMPLATE_ERROR"
	CodeNotFound        = "NOT_FOUND"
)

// Sentinel errors shared across component boundaries.
var (
	// ErrStateNotLoaded indicates an operation ran without a loaded workflow state.
	ErrStateNotLoaded = errors.New("no workflow state loaded")

	// ErrInvalidStateIdentity indicates a loaded state carries no usable workflow ID.
	ErrInvalidStateIdentity = errors.New("workflow state has no valid identity")

	// ErrStateNotFound indicates no persisted state exists for the given workflow ID.
	ErrStateNotFound = errors.New("workflow state not found")

	// ErrTemplateNotFound indicates no active template matches the selection.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrVariableNotFound indicates a variable definition is absent from the record store.
	ErrVariableNotFound = errors.New("variable definition not found")

	// ErrWorkflowTypeImmutable indicates an attempt to change a session's type after it was set.
	ErrWorkflowTypeImmutable = errors.New("workflow type is immutable once set")
)

// StateError wraps failures of workflow-state preconditions with context.
type StateError struct {
	Op         string // Operation being performed (e.g. "SetStatus", "GenerateContent")
	WorkflowID string // Workflow ID if applicable
	Err        error  // Underlying error
}

func (e *StateError) Error() string {
	if e.WorkflowID == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

func (e *StateError) Is(target error) bool { return errors.Is(e.Err, target) }

// Code returns the user-facing error code for state failures.
func (e *StateError) Code() string { return CodeStateError }

// NewStateError creates a state error with operation context.
func NewStateError(op, workflowID string, err error) *StateError {
	return &StateError{Op: op, WorkflowID: workflowID, Err: err}
}

// ValidationError reports that one or more fields failed rule evaluation.
type ValidationError struct {
	Op          string              // Operation being performed
	FieldErrors map[string][]string // Field name to error messages
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for name := range e.FieldErrors {
		fields = append(fields, name)
	}

	return fmt.Sprintf("%s failed validation for fields: %s", e.Op, strings.Join(fields, ", "))
}

// Code returns the user-facing error code for validation failures.
func (e *ValidationError) Code() string { return CodeValidationError }

// NewValidationError creates a validation error from per-field messages.
func NewValidationError(op string, fieldErrors map[string][]string) *ValidationError {
	return &ValidationError{Op: op, FieldErrors: fieldErrors}
}

// TemplateError wraps render-time failures outside preview containment.
type TemplateError struct {
	Op         string // Rendering phase (e.g. "Render", "ValidateTemplate")
	TemplateID string // Template ID if known
	Err        error  // Underlying error
}

func (e *TemplateError) Error() string {
	if e.TemplateID == "" {
		return fmt.Sprintf("template %s failed: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("template %s failed for %s: %v", e.Op, e.TemplateID, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

func (e *TemplateError) Is(target error) bool { return errors.Is(e.Err, target) }

// Code returns the user-facing error code for template failures.
func (e *TemplateError) Code() string { return CodeTemplateError }

// NewTemplateError creates a template error with phase context.
func NewTemplateError(op, templateID string, err error) *TemplateError {
	return &TemplateError{Op: op, TemplateID: templateID, Err: err}
}

// IsNotFound checks whether err indicates any absent record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStateNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrVariableNotFound)
}

// ErrorCode extracts the user-facing code for err, defaulting to the
// state-error code for untyped failures.
func ErrorCode(err error) string {
	type coded interface{ Code() string }

	var c coded
	if errors.As(err, &c) {
		return c.Code()
	}

	if IsNotFound(err) {
		return CodeNotFound
	}

	return CodeStateError
}
