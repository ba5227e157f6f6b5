package prompt

import (
	"fmt"
	"strings"
	"time"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/pkg/crm"
)

const (
	unknown          = "Unknown"
	untitledMeeting  = "Untitled Meeting"
	unknownDate      = "Unknown date"
	noTranscript     = "No transcript available"
	noMeetings       = "No meetings found with this contact."
	unknownSpeaker   = "Unknown Speaker"
	meetingSeparator = "\n\n---\n\n"
	dateLayout       = "2006-01-02"
)

func renderContact(contact *entity.Contact, snapshot *crm.Snapshot) string {
	var name, email, company, title, phone, department string
	if snapshot != nil {
		name, email = snapshot.Name, snapshot.Email
		company, title, phone, department = snapshot.Company, snapshot.Title, snapshot.Phone, snapshot.Department
	}
	if contact != nil {
		name = orElse(name, contact.Name)
		email = orElse(email, contact.Email)
	}

	var sb strings.Builder
	sb.WriteString("CONTACT INFORMATION:\n")
	fmt.Fprintf(&sb, "Name: %s\n", orElse(name, unknown))
	fmt.Fprintf(&sb, "Email: %s\n", orElse(email, unknown))
	fmt.Fprintf(&sb, "Company: %s\n", orElse(company, unknown))
	fmt.Fprintf(&sb, "Title: %s\n", orElse(title, unknown))
	fmt.Fprintf(&sb, "Phone: %s", orElse(phone, unknown))
	if department != "" {
		fmt.Fprintf(&sb, "\nDepartment: %s", department)
	}
	return sb.String()
}

func renderMeetings(meetings []*entity.Meeting) string {
	if len(meetings) == 0 {
		return noMeetings
	}
	blocks := make([]string, len(meetings))
	for i, m := range meetings {
		blocks[i] = renderMeeting(m)
	}
	return strings.Join(blocks, meetingSeparator)
}

func renderMeeting(m *entity.Meeting) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Meeting: %s\n", MeetingTitle(m))
	fmt.Fprintf(&sb, "Meeting ID: %d\n", m.Id)
	fmt.Fprintf(&sb, "Date: %s\n", orElse(MeetingDate(m), unknownDate))
	fmt.Fprintf(&sb, "Duration: %s\n", duration(m.DurationSeconds))
	if participants := nonBlank(m.Participants); len(participants) > 0 {
		fmt.Fprintf(&sb, "Participants: %s\n", strings.Join(participants, ", "))
	}
	sb.WriteString("Transcript:\n")
	sb.WriteString(transcript(m.Transcript))
	return sb.String()
}

// MeetingTitle is the title shown to the model and stored in meeting refs.
func MeetingTitle(m *entity.Meeting) string {
	return orElse(strings.TrimSpace(m.Title), untitledMeeting)
}

// MeetingDate is the UTC calendar date, or "" when unknown.
func MeetingDate(m *entity.Meeting) string {
	t := m.OccurredAt()
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func duration(seconds *int) string {
	if seconds == nil || *seconds < 0 {
		return unknown
	}
	return fmt.Sprintf("%d minutes", int(time.Duration(*seconds)*time.Second/time.Minute))
}

func transcript(segments []entity.TranscriptSegment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		words := make([]string, 0, len(seg.Words))
		for _, w := range seg.Words {
			if text := strings.TrimSpace(w.Text); text != "" {
				words = append(words, text)
			}
		}
		if len(words) == 0 {
			continue
		}
		speaker := orElse(strings.TrimSpace(seg.Speaker), unknownSpeaker)
		lines = append(lines, speaker+": "+strings.Join(words, " "))
	}
	if len(lines) == 0 {
		return noTranscript
	}
	return strings.Join(lines, "\n")
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func orElse(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
