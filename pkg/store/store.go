// Package store defines the record store contract: read access to
// templates, variable definitions, policy categories and workflow
// configuration, plus the audit sink. The core never writes records.
package store

import (
	"context"

	"github.com/replyforge/replyforge/pkg/models"
)

// RecordStore is the read-side contract the generation workflow depends on.
// Lookups for absent records return the package-level not-found sentinels
// from pkg/models.
type RecordStore interface {
	// FindTemplate returns the first active template matching the
	// selection tuple. Match order is collection order, so the result is
	// deterministic for a fixed record set.
	FindTemplate(ctx context.Context, workflowType models.WorkflowType, category, subcategory, status string) (*models.Template, error)

	FindTemplateByID(ctx context.Context, templateID string) (*models.Template, error)

	// GetTemplateVariables returns the required/optional variable-name
	// split for a template.
	GetTemplateVariables(ctx context.Context, templateID string) (models.TemplateVariables, error)

	GetVariableDefinition(ctx context.Context, name string) (*models.VariableDefinition, error)

	// GetOptionsFor returns the ordered option list of a choice variable.
	// A defined variable without options yields an empty list, not an error.
	GetOptionsFor(ctx context.Context, name string) ([]models.Option, error)

	// GetPolicyCategories returns the category tree for one workflow type.
	GetPolicyCategories(ctx context.Context, workflowType models.WorkflowType) ([]*models.PolicyCategory, error)

	GetWorkflowConfig(ctx context.Context) (*models.WorkflowConfig, error)

	// RecordAuditEvent emits an audit record on the event bus. Audit is
	// fire-and-forget for the caller but failures are returned so the
	// workflow can log them.
	RecordAuditEvent(ctx context.Context, action, entityType, entityID string, details map[string]any) error
}
