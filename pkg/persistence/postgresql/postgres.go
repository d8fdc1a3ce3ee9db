// Package postgresql provides PostgreSQL persistence for workflow states.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/replyforge/replyforge/pkg/models"
	"github.com/replyforge/replyforge/pkg/persistence/sqlbase"
)

// Repository stores workflow states in a workflow_states table, with the
// step data as a JSONB document.
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository connects to PostgreSQL and runs pending migrations.
func NewRepository(ctx context.Context, logger *slog.Logger, databaseURL string) (*Repository, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Repository{
		db:     database,
		logger: logger.With("module", "persistence"),
	}, nil
}

// Load reads the state for workflowID.
func (r *Repository) Load(ctx context.Context, workflowID string) (*models.WorkflowState, error) {
	query := `
		SELECT id, step_index, total_steps, lifecycle_status, owner_id, locale,
		       data, created_at, updated_at, completed_at
		FROM workflow_states
		WHERE id = $1
	`

	var (
		state       models.WorkflowState
		ownerID     sql.NullString
		locale      sql.NullString
		rawData     []byte
		completedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, workflowID).Scan(
		&state.ID, &state.StepIndex, &state.TotalSteps, &state.Status,
		&ownerID, &locale, &rawData, &state.CreatedAt, &state.UpdatedAt,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workflow %s: %w", workflowID, models.ErrStateNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load state %s: %w", workflowID, err)
	}

	state.OwnerID = ownerID.String
	state.Locale = locale.String

	if completedAt.Valid {
		completed := completedAt.Time
		state.CompletedAt = &completed
	}

	err = json.Unmarshal(rawData, &state.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal state data %s: %w", workflowID, err)
	}

	return &state, nil
}

// Save upserts the state, stamping timestamps.
func (r *Repository) Save(ctx context.Context, state *models.WorkflowState) error {
	if state.ID == "" {
		return models.ErrInvalidStateIdentity
	}

	now := time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}

	state.UpdatedAt = now

	rawData, err := json.Marshal(state.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal state data %s: %w", state.ID, err)
	}

	query := `
		INSERT INTO workflow_states (
			id, step_index, total_steps, lifecycle_status, owner_id, locale,
			data, created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			step_index = EXCLUDED.step_index,
			total_steps = EXCLUDED.total_steps,
			lifecycle_status = EXCLUDED.lifecycle_status,
			owner_id = EXCLUDED.owner_id,
			locale = EXCLUDED.locale,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		state.ID, state.StepIndex, state.TotalSteps, state.Status,
		nullString(state.OwnerID), nullString(state.Locale), rawData,
		state.CreatedAt, state.UpdatedAt, nullTime(state.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save state %s: %w", state.ID, err)
	}

	return nil
}

// DeleteOlderThan removes states whose last touch predates the cutoff.
func (r *Repository) DeleteOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	result, err := r.db.ExecContext(ctx,
		"DELETE FROM workflow_states WHERE COALESCE(updated_at, created_at) < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired states: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted states: %w", err)
	}

	return int(removed), nil
}

// HealthCheck verifies the database connection is healthy.
func (r *Repository) HealthCheck(ctx context.Context) error {
	err := r.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (r *Repository) Close(_ context.Context) error {
	if r.db != nil {
		err := r.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: *t, Valid: true}
}
