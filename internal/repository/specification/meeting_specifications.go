package specification

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MeetingOwnedBy scopes meetings to the user who recorded them.
type MeetingOwnedBy struct {
	UserID uuid.UUID
}

func (s MeetingOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("meetings.user_id = ?", s.UserID)
}

// AttendedByContact keeps meetings whose calendar event has an attendance
// row for the contact. The calendar event must belong to the same user.
type AttendedByContact struct {
	UserID    uuid.UUID
	ContactID int64
}

func (s AttendedByContact) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Joins("JOIN calendar_events ce ON ce.id = meetings.calendar_event_id AND ce.user_id = ?", s.UserID).
		Joins("JOIN attendances a ON a.calendar_event_id = ce.id").
		Where("a.contact_id = ?", s.ContactID)
}

// ParticipantFirstName keeps meetings where any participant's first
// whitespace-delimited token equals the given token, case-insensitively.
type ParticipantFirstName struct {
	Token string
}

func (s ParticipantFirstName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(
		`EXISTS (SELECT 1 FROM jsonb_array_elements_text(meetings.participants) AS p(name)
		 WHERE lower((regexp_split_to_array(btrim(p.name), '\s+'))[1]) = ?)`,
		strings.ToLower(s.Token),
	)
}

// MostRecentlyRecorded orders meetings newest first with a stable tiebreak.
type MostRecentlyRecorded struct{}

func (s MostRecentlyRecorded) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("meetings.recorded_at DESC NULLS LAST").Order("meetings.id DESC")
}
