// Package cmd provides common initialization for command-line applications.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/replyforge/replyforge/pkg/persistence"
	"github.com/replyforge/replyforge/pkg/persistence/file"
	"github.com/replyforge/replyforge/pkg/persistence/postgresql"
)

// NewStateRepository selects the state repository by database URL scheme:
// postgres:// connects to PostgreSQL, anything else is treated as a
// file-backed root.
func NewStateRepository(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.StateRepository, error) {
	switch parseScheme(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewRepository(ctx, logger, databaseURL)
	default:
		return file.NewRepository(databaseURL, logger), nil
	}
}

func parseScheme(rawURL string) string {
	parts := strings.SplitN(rawURL, "://", 2)
	if len(parts) < 2 {
		return "file"
	}

	return parts[0]
}
