// Package events defines the audit event types emitted by the generation
// workflow.
package events

import (
	"time"
)

type EventType string

// Topic carries every audit event.
const Topic = "replyforge.audit"

const EventTypeMetadataKey = "event_type"

const (
	AuditRecordedEvent       EventType = "audit.recorded"
	GenerationCompletedEvent EventType = "generation.completed"
	StateCleanupEvent        EventType = "state.cleanup"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// AuditRecord is the generic "record event" carrier used by the record
// store's audit contract.
type AuditRecord struct {
	BaseEvent

	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
}

func (e AuditRecord) GetType() EventType {
	return AuditRecordedEvent
}

// GenerationCompleted fires when a session reaches COMPLETED.
type GenerationCompleted struct {
	BaseEvent

	TemplateID    string `json:"template_id"`
	ContentLength int    `json:"content_length"`
	WordCount     int    `json:"word_count"`
}

func (e GenerationCompleted) GetType() EventType {
	return GenerationCompletedEvent
}

// StateCleanup fires after a maintenance sweep over persisted states.
type StateCleanup struct {
	BaseEvent

	Deleted int           `json:"deleted"`
	Corrupt int           `json:"corrupt"`
	MaxAge  time.Duration `json:"max_age"`
}

func (e StateCleanup) GetType() EventType {
	return StateCleanupEvent
}
