package entity

import (
	"time"

	"github.com/google/uuid"
)

type CalendarEvent struct {
	Id        int64
	UserId    uuid.UUID
	Title     string
	StartsAt  *time.Time
	CreatedAt time.Time
}

// Attendance links a Contact to a CalendarEvent.
type Attendance struct {
	Id              int64
	ContactId       int64
	CalendarEventId int64
	DisplayName     string
	IsOrganizer     bool
}
