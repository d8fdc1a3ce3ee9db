package cmd

import (
	"log/slog"

	"github.com/replyforge/replyforge/pkg/eventbus"
)

// NewEventBus creates the in-process audit event bus.
func NewEventBus(logger *slog.Logger) *eventbus.Bus {
	return eventbus.NewGoChannelBus(logger)
}
