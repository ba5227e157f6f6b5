package nats

import (
	"testing"
	"time"

	"contact-assistant-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.thread.titled", Subject(events.TypeThreadTitled))
	assert.Equal(t, "events.>", Subject(">"))
}

func TestEncodeDecode_KeepsTypeAndTime(t *testing.T) {
	threadId := uuid.New()
	in := events.ThreadTitled(threadId, uuid.New(), "Pricing follow-up", true)

	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(Subject(in.EventType()), data)
	require.NoError(t, err)
	assert.Equal(t, events.TypeThreadTitled, out.EventType())
	assert.Equal(t, threadId.String(), out.Payload()["thread_id"])
	assert.Equal(t, true, out.Payload()["fallback"])
	assert.WithinDuration(t, in.Timestamp(), out.Timestamp(), time.Millisecond)
}

func TestDecode_FallsBackToSubject(t *testing.T) {
	out, err := Decode("events.chat.turn_completed", []byte(`{"data":{"meeting_count":2}}`))
	require.NoError(t, err)
	assert.Equal(t, events.TypeTurnCompleted, out.EventType())
	assert.Equal(t, float64(2), out.Payload()["meeting_count"])
	assert.False(t, out.Timestamp().IsZero())

	_, err = Decode("events.x", []byte("not json"))
	assert.Error(t, err)
}
