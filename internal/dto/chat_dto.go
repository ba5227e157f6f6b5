package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateThreadRequest struct {
	Title string `json:"title,omitempty" validate:"max=120"`
}

type ThreadResponse struct {
	Id             uuid.UUID `json:"id"`
	Title          *string   `json:"title"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// MentionDTO references the contact a message is about. Any subset of
// fields may be set. Email is a free-text hint; a malformed one is ignored
// during resolution rather than rejected here.
type MentionDTO struct {
	ContactId *int64                 `json:"contact_id,omitempty" validate:"omitempty,gt=0"`
	Email     string                 `json:"email,omitempty" validate:"max=320"`
	CrmData   map[string]interface{} `json:"crm_data,omitempty"`
	Name      string                 `json:"name,omitempty" validate:"max=200"`
}

type SendMessageRequest struct {
	Content  string       `json:"content" validate:"required,notblank,max=8000"`
	Mentions []MentionDTO `json:"mentions,omitempty" validate:"max=5,dive"`
}

type MeetingRefDTO struct {
	MeetingId int64  `json:"meeting_id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
}

// CitationDTO is one [label](meeting:id) link found in a reply. InRefs is
// false when the model cited a meeting it was not shown.
type CitationDTO struct {
	Label     string `json:"label"`
	MeetingId int64  `json:"meeting_id"`
	InRefs    bool   `json:"in_refs"`
}

type MessageResponse struct {
	Id          uuid.UUID       `json:"id"`
	Role        string          `json:"role"`
	Content     string          `json:"content"`
	Mentions    []MentionDTO    `json:"mentions,omitempty"`
	MeetingRefs []MeetingRefDTO `json:"meeting_refs,omitempty"`
	Citations   []CitationDTO   `json:"citations,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type SendMessageResponse struct {
	ThreadId     uuid.UUID        `json:"thread_id"`
	Sent         *MessageResponse `json:"sent"`
	Reply        *MessageResponse `json:"reply"`
	EvidenceTier string           `json:"evidence_tier"`
	TitlePending bool             `json:"title_pending"`
}

type CrmFieldDTO struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	APIName string `json:"api_name"`
}

type CrmProviderFieldsResponse struct {
	Provider string        `json:"provider"`
	Fields   []CrmFieldDTO `json:"fields"`
}

// TitleJobMessage is the payload of a title generation job.
type TitleJobMessage struct {
	ThreadId uuid.UUID `json:"thread_id"`
	UserId   uuid.UUID `json:"user_id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
}
