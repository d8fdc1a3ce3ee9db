// Package persistence defines the storage contract for workflow states.
package persistence

import (
	"context"
	"time"

	"github.com/replyforge/replyforge/pkg/models"
)

// DefaultStateMaxAge is the retention threshold for abandoned sessions.
const DefaultStateMaxAge = 24 * time.Hour

// StateRepository stores one WorkflowState per workflow ID. Writes are
// last-write-wins; concurrent sessions are expected to use distinct IDs.
type StateRepository interface {
	// Load returns the persisted state for workflowID, or an error
	// wrapping models.ErrStateNotFound when none exists.
	Load(ctx context.Context, workflowID string) (*models.WorkflowState, error)

	// Save persists state under state.ID, stamping CreatedAt on first
	// save and UpdatedAt always.
	Save(ctx context.Context, state *models.WorkflowState) error

	// DeleteOlderThan removes states whose age exceeds maxAge and returns
	// how many entries were removed. Corrupt entries count as removed.
	DeleteOlderThan(ctx context.Context, maxAge time.Duration) (int, error)

	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
