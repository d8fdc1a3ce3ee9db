// Package file provides file-based persistence for workflow states.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/replyforge/replyforge/pkg/models"
)

// Repository stores each workflow state as one JSON document under
// root/states/.
type Repository struct {
	root   string
	logger *slog.Logger

	now func() time.Time
}

// NewRepository creates a file-backed state repository rooted at root. The
// root may carry a file:// prefix.
func NewRepository(root string, logger *slog.Logger) *Repository {
	return &Repository{
		root:   strings.Replace(root, "file://", "", 1),
		logger: logger.With("module", "persistence"),
		now:    time.Now,
	}
}

// Load reads the state for workflowID from the file system.
func (r *Repository) Load(_ context.Context, workflowID string) (*models.WorkflowState, error) {
	filePath := filepath.Clean(path.Join(r.root, "states", workflowID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("workflow %s: %w", workflowID, models.ErrStateNotFound)
		}

		return nil, fmt.Errorf("failed to read state %s: %w", workflowID, err)
	}

	var state models.WorkflowState

	err = json.Unmarshal(body, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal state %s: %w", workflowID, err)
	}

	return &state, nil
}

// Save writes the state to the file system, stamping timestamps.
func (r *Repository) Save(_ context.Context, state *models.WorkflowState) error {
	if state.ID == "" {
		return models.ErrInvalidStateIdentity
	}

	err := os.MkdirAll(path.Join(r.root, "states"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create states directory: %w", err)
	}

	now := r.now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}

	state.UpdatedAt = now

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state %s: %w", state.ID, err)
	}

	filePath := path.Join(r.root, "states", state.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}

// DeleteOlderThan removes states older than maxAge. A file that cannot be
// parsed is purged and counted like an expired one.
func (r *Repository) DeleteOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	statesDir := path.Join(r.root, "states")

	if _, err := os.Stat(statesDir); os.IsNotExist(err) {
		return 0, nil
	}

	root := os.DirFS(statesDir)

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return 0, fmt.Errorf("failed to list state files: %w", err)
	}

	now := r.now().UTC()
	removed := 0

	for _, file := range jsonFiles {
		workflowID := file[:len(file)-5] // Remove .json extension
		filePath := path.Join(statesDir, file)

		state, err := r.Load(ctx, workflowID)
		if err != nil {
			r.logger.WarnContext(ctx, "Purging corrupt state file",
				"workflow_id", workflowID, "error", err)

			if removeErr := os.Remove(filePath); removeErr != nil {
				return removed, fmt.Errorf("failed to purge corrupt state %s: %w", workflowID, removeErr)
			}

			removed++

			continue
		}

		if state.Age(now) <= maxAge {
			continue
		}

		if err := os.Remove(filePath); err != nil {
			return removed, fmt.Errorf("failed to delete expired state %s: %w", workflowID, err)
		}

		removed++
	}

	return removed, nil
}

// HealthCheck verifies the root directory exists.
func (r *Repository) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(r.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for file persistence.
func (r *Repository) Close(_ context.Context) error {
	return nil
}
