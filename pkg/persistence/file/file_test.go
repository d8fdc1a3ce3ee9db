package file

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyforge/replyforge/pkg/models"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	return NewRepository(t.TempDir(), slog.Default())
}

func TestRepository_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	state := &models.WorkflowState{
		ID:         "wf-1",
		StepIndex:  2,
		TotalSteps: 6,
		Status:     models.StatusPolicySelected,
		OwnerID:    "agent-7",
		Data: models.WorkflowData{
			WorkflowType: models.WorkflowTypeMisreview,
			Category:     "ads",
			Variables:    map[string]any{"businessName": "Acme"},
		},
	}

	require.NoError(t, repo.Save(ctx, state))
	assert.False(t, state.CreatedAt.IsZero(), "first save stamps created_at")
	assert.False(t, state.UpdatedAt.IsZero())

	loaded, err := repo.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, state.ID, loaded.ID)
	assert.Equal(t, models.StatusPolicySelected, loaded.Status)
	assert.Equal(t, "Acme", loaded.Data.Variables["businessName"])
}

func TestRepository_LoadNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrStateNotFound)
}

func TestRepository_SaveRejectsEmptyID(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.Save(context.Background(), &models.WorkflowState{})
	assert.ErrorIs(t, err, models.ErrInvalidStateIdentity)
}

func TestRepository_SavePreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	state := &models.WorkflowState{ID: "wf-1", Status: models.StatusInitial}
	require.NoError(t, repo.Save(ctx, state))

	createdAt := state.CreatedAt

	repo.now = func() time.Time { return time.Now().Add(time.Hour) }

	require.NoError(t, repo.Save(ctx, state))
	assert.Equal(t, createdAt, state.CreatedAt)
	assert.True(t, state.UpdatedAt.After(createdAt))
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	now := time.Now().UTC()

	saveAt := func(id string, touched time.Time) {
		repo.now = func() time.Time { return touched }
		require.NoError(t, repo.Save(ctx, &models.WorkflowState{ID: id, Status: models.StatusInitial}))
	}

	saveAt("fresh", now)
	saveAt("almost", now.Add(-23*time.Hour))
	saveAt("expired", now.Add(-25*time.Hour))

	repo.now = func() time.Time { return now }

	removed, err := repo.DeleteOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = repo.Load(ctx, "expired")
	assert.ErrorIs(t, err, models.ErrStateNotFound)

	_, err = repo.Load(ctx, "fresh")
	assert.NoError(t, err)

	_, err = repo.Load(ctx, "almost")
	assert.NoError(t, err)
}

func TestRepository_DeleteOlderThanPurgesCorruptEntries(t *testing.T) {
	ctx := context.Background()

	root := t.TempDir()
	repo := NewRepository(root, slog.Default())

	require.NoError(t, repo.Save(ctx, &models.WorkflowState{ID: "good", Status: models.StatusInitial}))

	corrupt := filepath.Join(root, "states", "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o600))

	removed, err := repo.DeleteOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "corrupt entries count as cleaned")

	_, statErr := os.Stat(corrupt)
	assert.True(t, os.IsNotExist(statErr))

	_, err = repo.Load(ctx, "good")
	assert.NoError(t, err)
}

func TestRepository_DeleteOlderThanWithoutStatesDir(t *testing.T) {
	repo := newTestRepository(t)

	removed, err := repo.DeleteOlderThan(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRepository_HealthCheck(t *testing.T) {
	repo := newTestRepository(t)
	assert.NoError(t, repo.HealthCheck(context.Background()))

	missing := NewRepository("file:///nonexistent/state-root", slog.Default())
	assert.Error(t, missing.HealthCheck(context.Background()))
}
