package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyforge/replyforge/pkg/events"
)

func TestBus_RecordAndSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewGoChannelBus(slog.Default())
	defer func() {
		_ = bus.Close()
	}()

	received := make(chan events.AuditRecord, 1)

	err := bus.Subscribe(ctx, func(_ context.Context, eventType events.EventType, payload []byte) error {
		require.Equal(t, events.AuditRecordedEvent, eventType)

		var record events.AuditRecord

		err := json.Unmarshal(payload, &record)
		if err != nil {
			return err
		}

		received <- record

		return nil
	})
	require.NoError(t, err)

	err = bus.Record(ctx, events.AuditRecord{
		BaseEvent: events.BaseEvent{
			Type:       events.AuditRecordedEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: "wf-1",
		},
		Action:     "generate",
		EntityType: "template",
		EntityID:   "tpl-1",
	})
	require.NoError(t, err)

	select {
	case record := <-received:
		assert.Equal(t, "generate", record.Action)
		assert.Equal(t, "wf-1", record.WorkflowID)
	case <-time.After(2 * time.Second):
		t.Fatal("audit event was not delivered")
	}
}
