package main

import (
	"context"
	"log"
	"os"
	"time"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/repository/unitofwork"
	"contact-assistant-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type seedMeeting struct {
	title        string
	daysAgo      int
	minutes      int
	participants []string
	lines        [][2]string
	attendees    []string
}

var meetings = []seedMeeting{
	{
		title:        "Product Demo",
		daysAgo:      3,
		minutes:      30,
		participants: []string{"John Doe", "Avery Lin"},
		attendees:    []string{"john@example.com"},
		lines: [][2]string{
			{"John Doe", "Can the dashboard export to CSV?"},
			{"Avery Lin", "Yes, and we are adding scheduled exports next quarter."},
		},
	},
	{
		title:        "Pricing follow-up",
		daysAgo:      10,
		minutes:      25,
		participants: []string{"John Doe", "Priya Natarajan", "Avery Lin"},
		attendees:    []string{"john@example.com", "priya@initech.example"},
		lines: [][2]string{
			{"Priya Natarajan", "Procurement needs the annual quote by Friday."},
			{"John Doe", "We would like a three year option as well."},
		},
	},
	{
		title:        "Intro call",
		daysAgo:      21,
		minutes:      15,
		participants: []string{"Mary Smith", "Avery Lin"},
		lines: [][2]string{
			{"Mary Smith", "I lead partnerships at Globex."},
		},
	},
}

var contacts = map[string]string{
	"john@example.com":      "John Doe",
	"priya@initech.example": "Priya Natarajan",
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	userId, err := uuid.Parse(os.Getenv("SEED_USER_ID"))
	if dsn == "" || err != nil {
		color.Red("Error: DB_CONNECTION_STRING and a valid SEED_USER_ID are required")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
	defer uow.Rollback()

	color.Cyan("Seeding demo data for user %s", userId)

	byEmail := make(map[string]*entity.Contact, len(contacts))
	for email, name := range contacts {
		c, err := uow.ContactRepository().FindOrCreateByEmail(ctx, email, name)
		if err != nil {
			color.Red("Failed to create contact %s: %v", email, err)
			os.Exit(1)
		}
		byEmail[email] = c
		color.Green("  contact #%d %s", c.Id, c.Email)
	}

	now := time.Now().UTC()
	for _, sm := range meetings {
		startsAt := now.AddDate(0, 0, -sm.daysAgo)
		event := &entity.CalendarEvent{UserId: userId, Title: sm.title, StartsAt: &startsAt}
		if err := uow.MeetingRepository().CreateCalendarEvent(ctx, event); err != nil {
			color.Red("Failed to create event %q: %v", sm.title, err)
			os.Exit(1)
		}

		for _, email := range sm.attendees {
			c := byEmail[email]
			if err := uow.ContactRepository().CreateAttendance(ctx, &entity.Attendance{
				ContactId:       c.Id,
				CalendarEventId: event.Id,
				DisplayName:     c.Name,
			}); err != nil {
				color.Red("Failed to link %s to %q: %v", email, sm.title, err)
				os.Exit(1)
			}
		}

		duration := sm.minutes * 60
		recordedAt := startsAt
		meeting := &entity.Meeting{
			UserId:          userId,
			CalendarEventId: &event.Id,
			Title:           sm.title,
			RecordedAt:      &recordedAt,
			DurationSeconds: &duration,
			Participants:    sm.participants,
			Transcript:      transcript(sm.lines),
		}
		if err := uow.MeetingRepository().Create(ctx, meeting); err != nil {
			color.Red("Failed to create meeting %q: %v", sm.title, err)
			os.Exit(1)
		}
		color.Green("  meeting #%d %s", meeting.Id, sm.title)
	}

	if err := uow.Commit(); err != nil {
		color.Red("Error: commit failed: %v", err)
		os.Exit(1)
	}
	color.Cyan("Done")
}

func transcript(lines [][2]string) []entity.TranscriptSegment {
	out := make([]entity.TranscriptSegment, 0, len(lines))
	for _, line := range lines {
		seg := entity.TranscriptSegment{Speaker: line[0]}
		for _, w := range splitWords(line[1]) {
			seg.Words = append(seg.Words, entity.TranscriptWord{Text: w})
		}
		out = append(out, seg)
	}
	return out
}

func splitWords(s string) []string {
	var words []string
	start := -1
	for i, r := range s {
		if r == ' ' {
			if start >= 0 {
				words = append(words, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, s[start:])
	}
	return words
}
