package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeTurnCompleted = "chat.turn_completed"
	TypeThreadTitled  = "thread.titled"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the dotted event name, e.g. "thread.titled".
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

// Publisher is satisfied by the NATS publisher and by Nop.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// TurnCompleted is emitted after the assistant reply has been stored.
func TurnCompleted(threadId, userId, userMessageId, assistantMessageId uuid.UUID, tier string, meetingCount int) BaseEvent {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"thread_id":            threadId.String(),
			"user_id":              userId.String(),
			"user_message_id":      userMessageId.String(),
			"assistant_message_id": assistantMessageId.String(),
			"evidence_tier":        tier,
			"meeting_count":        meetingCount,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// ThreadTitled is emitted once, when a thread's title is first written.
func ThreadTitled(threadId, userId uuid.UUID, title string, fallback bool) BaseEvent {
	return BaseEvent{
		Type: TypeThreadTitled,
		Data: map[string]interface{}{
			"thread_id": threadId.String(),
			"user_id":   userId.String(),
			"title":     title,
			"fallback":  fallback,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// Nop drops every event. Used when NATS is unreachable.
type Nop struct{}

func (Nop) Publish(ctx context.Context, event Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(ctx context.Context, event Event) error {
	r.Events = append(r.Events, event)
	return nil
}

func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
