package prompt

import (
	"strings"
	"testing"
	"time"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/pkg/crm"
	"contact-assistant-be/pkg/grounding/bundle"
	"contact-assistant-be/pkg/llm"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func words(s string) []entity.TranscriptWord {
	var out []entity.TranscriptWord
	for _, w := range strings.Fields(s) {
		out = append(out, entity.TranscriptWord{Text: w})
	}
	return out
}

func productDemo() *entity.Meeting {
	recorded := time.Date(2025, 1, 20, 15, 30, 0, 0, time.UTC)
	return &entity.Meeting{
		Id:              42,
		Title:           "Product Demo",
		RecordedAt:      &recorded,
		DurationSeconds: intPtr(1800),
		Participants:    []string{"John Doe", "Sarah Sales"},
		Transcript: []entity.TranscriptSegment{
			{Speaker: "John Doe", Words: words("Thanks for the demo.")},
			{Speaker: "Sarah Sales", Words: words("Happy to help.")},
		},
	}
}

const citationSection = `CITATION FORMAT:
When you refer to a meeting, cite it inline as [short label](meeting:MEETING_ID) using the Meeting ID shown above, for example [Kickoff call](meeting:123). Only cite meetings listed above and do not change the format.`

const contactHeader = `You are a helpful assistant that answers questions about a business contact using their CRM record and meeting history.

Only use the information provided below. Do not invent details about the contact, their company or their meetings that are not present in the CRM record or meeting history. If the answer is not in the provided information, say that you don't know.`

func TestBuildSystemContext_ContactWithConfirmedMeeting(t *testing.T) {
	b := &bundle.ContextBundle{
		Contact:  &entity.Contact{Id: 1, Name: "John Doe", Email: "john@example.com"},
		Meetings: []*entity.Meeting{productDemo()},
	}

	want := contactHeader + `

CONTACT INFORMATION:
Name: John Doe
Email: john@example.com
Company: Unknown
Title: Unknown
Phone: Unknown

MEETING HISTORY:

Meeting: Product Demo
Meeting ID: 42
Date: 2025-01-20
Duration: 30 minutes
Participants: John Doe, Sarah Sales
Transcript:
John Doe: Thanks for the demo.
Sarah Sales: Happy to help.

` + citationSection

	got := BuildSystemContext(b)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("system context mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, got, BuildSystemContext(b))
	}
}

func TestBuildSystemContext_SnapshotWithHeuristicAddendum(t *testing.T) {
	b := &bundle.ContextBundle{
		Snapshot:      &crm.Snapshot{Name: "Mary Quant", Company: "Acme", Department: "Sales"},
		Heuristic:     []*entity.Meeting{{Id: 7, Participants: []string{"Mary Smith", " "}}},
		HeuristicName: "Mary",
	}

	want := contactHeader + `

CONTACT INFORMATION:
Name: Mary Quant
Email: Unknown
Company: Acme
Title: Unknown
Phone: Unknown
Department: Sales

MEETING HISTORY:

No meetings found with this contact.

POSSIBLE RELATED MEETINGS (UNCONFIRMED):
The meetings below were matched only because a participant has the first name "Mary". They are not confirmed to include this contact. If you use any of them, say clearly that the match is based on the first name only and is unconfirmed. If you cannot tell whether a meeting involves this contact, say you don't know rather than guessing.

Meeting: Untitled Meeting
Meeting ID: 7
Date: Unknown date
Duration: Unknown
Participants: Mary Smith
Transcript:
No transcript available

` + citationSection

	if diff := cmp.Diff(want, BuildSystemContext(b)); diff != "" {
		t.Errorf("system context mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSystemContext_RecentMeetings(t *testing.T) {
	standup := &entity.Meeting{Id: 3, Title: "Standup", DurationSeconds: intPtr(59)}
	b := &bundle.ContextBundle{Meetings: []*entity.Meeting{productDemo(), standup}}

	want := `You are a helpful assistant that answers questions about the user's recent meetings.

Only use the information provided below. Do not invent details about people or meetings that are not present in the meeting history. If the answer is not in the provided information, say that you don't know.

RECENT MEETING HISTORY:

Meeting: Product Demo
Meeting ID: 42
Date: 2025-01-20
Duration: 30 minutes
Participants: John Doe, Sarah Sales
Transcript:
John Doe: Thanks for the demo.
Sarah Sales: Happy to help.

---

Meeting: Standup
Meeting ID: 3
Date: Unknown date
Duration: 0 minutes
Transcript:
No transcript available

` + citationSection

	if diff := cmp.Diff(want, BuildSystemContext(b)); diff != "" {
		t.Errorf("system context mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSystemContext_NameFallsBackToLocalContact(t *testing.T) {
	b := &bundle.ContextBundle{
		Contact:  &entity.Contact{Name: "Local Name", Email: "local@example.com"},
		Snapshot: &crm.Snapshot{Company: "Acme", Phone: "555"},
	}
	got := BuildSystemContext(b)

	assert.Contains(t, got, "Name: Local Name\nEmail: local@example.com\nCompany: Acme\nTitle: Unknown\nPhone: 555\n\nMEETING HISTORY:")
	assert.NotContains(t, got, "Department:")
	assert.Contains(t, got, "MEETING HISTORY:\n\nNo meetings found with this contact.")
	assert.NotContains(t, got, "POSSIBLE RELATED MEETINGS")
}

func TestBuildSystemContext_EventStartUsedWhenNotRecorded(t *testing.T) {
	start := time.Date(2024, 12, 31, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	m := &entity.Meeting{Id: 1, CalendarEvent: &entity.CalendarEvent{StartsAt: &start}}
	assert.Equal(t, "2025-01-01", MeetingDate(m))
}

func TestCitationInstructionMatchesParser(t *testing.T) {
	system := BuildSystemContext(&bundle.ContextBundle{})
	citations := ParseCitations(system)
	require.Len(t, citations, 1)
	assert.Equal(t, "Kickoff call", citations[0].Label)
	assert.Equal(t, int64(123), citations[0].MeetingId)

	formatted := FormatCitation("Product Demo on 2025-01-20", 42)
	parsed := ParseCitations("See " + formatted + ".")
	require.Len(t, parsed, 1)
	assert.Equal(t, Citation{Label: "Product Demo on 2025-01-20", MeetingId: 42, Start: 4, End: 4 + len(formatted)}, parsed[0])
}

func TestBuildTurns(t *testing.T) {
	history := []*entity.Message{
		{Role: "user", Content: "Who is John?"},
		{Role: "assistant", Content: "John is the CTO."},
		{Role: "user", Content: "When did we last meet?"},
	}

	turns := BuildTurns("SYSTEM", history, "When did we last meet?")

	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "SYSTEM"},
		{Role: llm.RoleModel, Content: Acknowledgment},
		{Role: llm.RoleUser, Content: "Who is John?"},
		{Role: llm.RoleModel, Content: "John is the CTO."},
		{Role: llm.RoleUser, Content: "When did we last meet?"},
	}, turns)
}

func TestBuildTurns_KeepsEarlierIdenticalQuestion(t *testing.T) {
	history := []*entity.Message{
		{Role: "user", Content: "Summarize"},
		{Role: "assistant", Content: "Done."},
	}

	turns := BuildTurns("S", history, "Summarize")

	require.Len(t, turns, 5)
	assert.Equal(t, "Summarize", turns[2].Content)
	assert.Equal(t, "Summarize", turns[4].Content)
}

func TestBuild_MeetingRefsFollowPromptOrder(t *testing.T) {
	demo := productDemo()
	b := &bundle.ContextBundle{
		Contact:  &entity.Contact{Name: "John Doe"},
		Meetings: []*entity.Meeting{demo, {Id: 5}},
	}

	p := Build(b, nil, "q")

	assert.Equal(t, []entity.MeetingRef{
		{MeetingId: 42, Title: "Product Demo", Date: "2025-01-20"},
		{MeetingId: 5, Title: "Untitled Meeting", Date: ""},
	}, p.MeetingRefs)
	assert.Equal(t, p.System, p.Turns[0].Content)
	assert.Len(t, p.Turns, 3)

	heuristic := &bundle.ContextBundle{Heuristic: []*entity.Meeting{{Id: 9, Title: "Intro"}}, HeuristicName: "Ann"}
	assert.Equal(t, []entity.MeetingRef{{MeetingId: 9, Title: "Intro"}}, MeetingRefs(heuristic))
}
