// Package models defines the core domain models for policy-response email generation.
package models

import "time"

// WorkflowType identifies the kind of review a response is generated for.
// The set is closed; a session's type is immutable once chosen.
type WorkflowType string

const (
	WorkflowTypeMisreview     WorkflowType = "misreview"
	WorkflowTypeDisapproval   WorkflowType = "disapproval"
	WorkflowTypeCertification WorkflowType = "certification"
	WorkflowTypeOther         WorkflowType = "other"
)

// IsValid reports whether t belongs to the closed workflow-type set.
func (t WorkflowType) IsValid() bool {
	switch t {
	case WorkflowTypeMisreview, WorkflowTypeDisapproval, WorkflowTypeCertification, WorkflowTypeOther:
		return true
	}

	return false
}

// LifecycleStatus represents the state-machine position of a generation session.
type LifecycleStatus string

const (
	StatusInitial        LifecycleStatus = "INITIAL"
	StatusTypeSelected   LifecycleStatus = "TYPE_SELECTED"
	StatusPolicySelected LifecycleStatus = "POLICY_SELECTED"
	StatusStatusSelected LifecycleStatus = "STATUS_SELECTED"
	StatusInputRequired  LifecycleStatus = "INPUT_REQUIRED"
	StatusValidation     LifecycleStatus = "VALIDATION"
	StatusGeneration     LifecycleStatus = "GENERATION"
	StatusCompleted      LifecycleStatus = "COMPLETED"
	StatusError          LifecycleStatus = "ERROR"
)

// Terminal reports whether no further transitions are expected from s.
func (s LifecycleStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// WorkflowData carries the user selections accumulated across steps.
type WorkflowData struct {
	WorkflowType     WorkflowType   `json:"workflow_type,omitempty"`
	Category         string         `json:"category,omitempty"`
	Subcategory      string         `json:"subcategory,omitempty"`
	Status           string         `json:"status,omitempty"`
	TemplateID       string         `json:"template_id,omitempty"`
	Variables        map[string]any `json:"variables,omitempty"`
	Preview          string         `json:"preview,omitempty"`
	GeneratedContent string         `json:"generated_content,omitempty"`
}

// WorkflowState is one in-progress generation session. The step index is
// 1-based and monotonically non-decreasing except on explicit reset.
type WorkflowState struct {
	ID          string          `json:"workflow_id"        validate:"required"`
	StepIndex   int             `json:"current_step_index"`
	TotalSteps  int             `json:"total_steps"`
	Status      LifecycleStatus `json:"lifecycle_status"`
	OwnerID     string          `json:"owner_id"`
	Locale      string          `json:"locale,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Data        WorkflowData    `json:"data"`
}

// Age returns how long ago the state was last touched, measured against
// UpdatedAt with CreatedAt as the fallback for never-updated states.
func (s *WorkflowState) Age(now time.Time) time.Duration {
	ref := s.UpdatedAt
	if ref.IsZero() {
		ref = s.CreatedAt
	}

	return now.Sub(ref)
}

// Projection is the client-safe view of a session returned by every
// mutating workflow operation. Internal bookkeeping fields stay private.
type Projection struct {
	WorkflowID string          `json:"workflow_id"`
	StepIndex  int             `json:"current_step_index"`
	TotalSteps int             `json:"total_steps"`
	Status     LifecycleStatus `json:"lifecycle_status"`
	Data       WorkflowData    `json:"data"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Project builds the client-safe projection of s.
func (s *WorkflowState) Project() Projection {
	return Projection{
		WorkflowID: s.ID,
		StepIndex:  s.StepIndex,
		TotalSteps: s.TotalSteps,
		Status:     s.Status,
		Data:       s.Data,
		UpdatedAt:  s.UpdatedAt,
	}
}
