// Package eventbus provides the audit event transport. Events ride an
// in-process watermill pubsub; the wire format stays JSON so a brokered
// transport can replace the channel without touching publishers.
package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/replyforge/replyforge/pkg/events"
)

// Event is anything publishable on the audit topic.
type Event interface {
	GetType() events.EventType
}

// Recorder is the "record event" contract the core components depend on.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// EventHandler consumes one decoded audit event.
type EventHandler func(ctx context.Context, eventType events.EventType, payload []byte) error

// Bus publishes audit events and fans them out to subscribed handlers.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

// NewBus wraps an existing watermill publisher/subscriber pair.
func NewBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *Bus {
	return &Bus{
		publisher:  pub,
		subscriber: sub,
		logger:     logger.With("module", "eventbus"),
	}
}

// NewGoChannelBus creates a bus on an in-process watermill channel. The
// same GoChannel instance serves both sides.
func NewGoChannelBus(logger *slog.Logger) *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 256,
			Persistent:          false,
		},
		watermill.NewSlogLogger(logger),
	)

	return NewBus(pubSub, pubSub, logger)
}

// Record publishes event on the audit topic.
func (b *Bus) Record(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewULID(), payload)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return b.publisher.Publish(events.Topic, msg)
}

// Subscribe consumes the audit topic until ctx is cancelled, invoking
// handler per event. Handler errors nack the message.
func (b *Bus) Subscribe(ctx context.Context, handler EventHandler) error {
	messages, err := b.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

			err := handler(ctx, eventType, msg.Payload)
			if err != nil {
				b.logger.ErrorContext(ctx, "Audit event handler failed",
					"event_type", eventType, "error", err)
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

// Close shuts the underlying publisher down.
func (b *Bus) Close() error {
	return b.publisher.Close()
}

// LogSink subscribes a handler that mirrors every audit event into the
// given logger. It is the default sink for single-process deployments.
func (b *Bus) LogSink(ctx context.Context, logger *slog.Logger) error {
	return b.Subscribe(ctx, func(ctx context.Context, eventType events.EventType, payload []byte) error {
		logger.InfoContext(ctx, "Audit event", "event_type", eventType, "payload", string(payload))

		return nil
	})
}
