package contract

import (
	"context"

	"contact-assistant-be/internal/entity"

	"github.com/google/uuid"
)

// MeetingRepository reads meetings with participants, transcript and
// calendar event preloaded. Every finder is scoped to userId.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *entity.Meeting) error
	CreateCalendarEvent(ctx context.Context, event *entity.CalendarEvent) error
	FindAttendedBy(ctx context.Context, userId uuid.UUID, contactId int64, limit int) ([]*entity.Meeting, error)
	FindByParticipantFirstName(ctx context.Context, userId uuid.UUID, token string, limit int) ([]*entity.Meeting, error)
	FindRecent(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.Meeting, error)
}
