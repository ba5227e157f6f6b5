package entity

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id        uuid.UUID
	ThreadId  uuid.UUID
	Role      string
	Content   string
	Metadata  MessageMetadata
	CreatedAt time.Time
}

// MessageMetadata is persisted as JSON on every message.
// User messages carry mentions, assistant messages carry meeting_refs.
type MessageMetadata struct {
	Mentions    []Mention    `json:"mentions,omitempty"`
	MeetingRefs []MeetingRef `json:"meeting_refs,omitempty"`
}

// Mention is the contact reference attached to a user message.
type Mention struct {
	ContactId *int64                 `json:"contact_id,omitempty"`
	Email     string                 `json:"email,omitempty"`
	CrmData   map[string]interface{} `json:"crm_data,omitempty"`
	Name      string                 `json:"name,omitempty"`
}

// MeetingRef is one meeting surfaced to the model for a reply.
type MeetingRef struct {
	MeetingId int64  `json:"meeting_id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
}

// PrimaryMention returns the first mention, or an empty one.
func (m MessageMetadata) PrimaryMention() Mention {
	if len(m.Mentions) == 0 {
		return Mention{}
	}
	return m.Mentions[0]
}
