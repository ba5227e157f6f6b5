package entity

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Meeting struct {
	Id              int64
	UserId          uuid.UUID
	CalendarEventId *int64
	Title           string
	RecordedAt      *time.Time
	DurationSeconds *int
	Participants    []string
	Transcript      []TranscriptSegment
	CalendarEvent   *CalendarEvent
	CreatedAt       time.Time
}

// TranscriptSegment is a span of words attributed to one speaker.
type TranscriptSegment struct {
	Speaker string           `json:"speaker"`
	Words   []TranscriptWord `json:"words"`
}

type TranscriptWord struct {
	Text      string   `json:"text"`
	StartTime *float64 `json:"start_time,omitempty"`
	EndTime   *float64 `json:"end_time,omitempty"`
}

// OccurredAt is the recording time, falling back to the calendar event start.
func (m *Meeting) OccurredAt() *time.Time {
	if m.RecordedAt != nil {
		return m.RecordedAt
	}
	if m.CalendarEvent != nil {
		return m.CalendarEvent.StartsAt
	}
	return nil
}

// SortMeetingsNewestFirst orders by recording time descending, unknown
// times last, ties broken by id descending. Matches the SQL ordering.
func SortMeetingsNewestFirst(meetings []*Meeting) {
	sort.SliceStable(meetings, func(i, j int) bool {
		a, b := meetings[i], meetings[j]
		switch {
		case a.RecordedAt == nil && b.RecordedAt == nil:
			return a.Id > b.Id
		case a.RecordedAt == nil:
			return false
		case b.RecordedAt == nil:
			return true
		case !a.RecordedAt.Equal(*b.RecordedAt):
			return a.RecordedAt.After(*b.RecordedAt)
		default:
			return a.Id > b.Id
		}
	})
}
