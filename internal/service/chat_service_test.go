package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"contact-assistant-be/internal/constant"
	"contact-assistant-be/internal/dto"
	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/pkg/logger"
	"contact-assistant-be/internal/repository/fake"
	"contact-assistant-be/pkg/apperr"
	"contact-assistant-be/pkg/crm"
	"contact-assistant-be/pkg/events"
	"contact-assistant-be/pkg/grounding/bundle"
	"contact-assistant-be/pkg/grounding/evidence"
	"contact-assistant-be/pkg/grounding/resolver"
	"contact-assistant-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	replies []string
	err     error
	calls   [][]llm.Message
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.calls = append(s.calls, history)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "ok", nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func (s *stubLLM) lastTurns() []llm.Message {
	if len(s.calls) == 0 {
		return nil
	}
	return s.calls[len(s.calls)-1]
}

type recordingJobs struct {
	payloads [][]byte
	err      error
}

func (r *recordingJobs) Publish(ctx context.Context, payload []byte) error {
	if r.err != nil {
		return r.err
	}
	r.payloads = append(r.payloads, payload)
	return nil
}

type recordingCanceller struct {
	cancelled []uuid.UUID
}

func (r *recordingCanceller) Cancel(threadId uuid.UUID) bool {
	r.cancelled = append(r.cancelled, threadId)
	return true
}

type noCRM struct{}

func (noCRM) Gather(ctx context.Context, userId uuid.UUID, email string) *crm.Snapshot { return nil }

type chatFixture struct {
	store    *fake.Store
	userId   uuid.UUID
	john     *entity.Contact
	demo     *entity.Meeting
	llm      *stubLLM
	jobs     *recordingJobs
	cancel   *recordingCanceller
	recorder *events.Recorder
	service  IChatService
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	store := fake.NewStore()
	userId := uuid.New()
	john := store.AddContact("John Doe", "john@example.com")
	ev := store.AddEvent(userId, "Product Demo")
	store.Attend(john.Id, ev.Id, "John Doe")
	recorded := time.Date(2025, 1, 20, 15, 0, 0, 0, time.UTC)
	demo := store.AddMeeting(&entity.Meeting{
		UserId:          userId,
		CalendarEventId: &ev.Id,
		Title:           "Product Demo",
		RecordedAt:      &recorded,
		Participants:    []string{"John Doe"},
	})

	log := logger.NewNopLogger()
	assembler := bundle.NewAssembler(
		resolver.NewResolver(store, log),
		evidence.NewFinder(store, evidence.DefaultLimits(), log),
		noCRM{},
	)

	f := &chatFixture{
		store:    store,
		userId:   userId,
		john:     john,
		demo:     demo,
		llm:      &stubLLM{},
		jobs:     &recordingJobs{},
		cancel:   &recordingCanceller{},
		recorder: &events.Recorder{},
	}
	f.service = NewChatService(store, assembler, f.llm, f.jobs, f.cancel, f.recorder, log, 20)
	return f
}

func (f *chatFixture) thread(t *testing.T, title string) uuid.UUID {
	t.Helper()
	res, err := f.service.CreateThread(context.Background(), f.userId, &dto.CreateThreadRequest{Title: title})
	require.NoError(t, err)
	return res.Id
}

func TestSendMessage_FirstTurnGroundsAndSchedulesTitle(t *testing.T) {
	f := newChatFixture(t)
	threadId := f.thread(t, "")
	f.llm.replies = []string{fmt.Sprintf("You met at the [Product Demo](meeting:%d), not at [Offsite](meeting:999).", f.demo.Id)}

	res, err := f.service.SendMessage(context.Background(), f.userId, threadId, &dto.SendMessageRequest{
		Content:  "When did I last meet John?",
		Mentions: []dto.MentionDTO{{ContactId: &f.john.Id}},
	})
	require.NoError(t, err)

	assert.Equal(t, string(evidence.TierConfirmed), res.EvidenceTier)
	assert.True(t, res.TitlePending)
	assert.Equal(t, constant.ChatMessageRoleUser, res.Sent.Role)
	require.Len(t, res.Reply.MeetingRefs, 1)
	assert.Equal(t, dto.MeetingRefDTO{MeetingId: f.demo.Id, Title: "Product Demo", Date: "2025-01-20"}, res.Reply.MeetingRefs[0])
	require.Len(t, res.Reply.Citations, 2)
	assert.True(t, res.Reply.Citations[0].InRefs)
	assert.False(t, res.Reply.Citations[1].InRefs)

	turns := f.llm.lastTurns()
	require.Len(t, turns, 3)
	assert.Contains(t, turns[0].Content, "MEETING HISTORY:")
	assert.Contains(t, turns[0].Content, "Name: John Doe")
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "When did I last meet John?"}, turns[2])

	stored := f.store.Messages(threadId)
	require.Len(t, stored, 2)
	assert.Equal(t, f.demo.Id, stored[1].Metadata.MeetingRefs[0].MeetingId)
	assert.Equal(t, f.john.Id, *stored[0].Metadata.Mentions[0].ContactId)

	require.Len(t, f.jobs.payloads, 1)
	var job dto.TitleJobMessage
	require.NoError(t, json.Unmarshal(f.jobs.payloads[0], &job))
	assert.Equal(t, threadId, job.ThreadId)
	assert.Equal(t, "When did I last meet John?", job.Question)
	assert.Equal(t, res.Reply.Content, job.Answer)

	completed := f.recorder.OfType(events.TypeTurnCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, "confirmed", completed[0].Payload()["evidence_tier"])
	assert.Equal(t, 1, completed[0].Payload()["meeting_count"])
}

func TestSendMessage_LaterTurnsCarryHistoryWithoutNewTitleJob(t *testing.T) {
	f := newChatFixture(t)
	threadId := f.thread(t, "")
	f.llm.replies = []string{"First answer.", "Second answer."}
	ctx := context.Background()

	_, err := f.service.SendMessage(ctx, f.userId, threadId, &dto.SendMessageRequest{Content: "First question"})
	require.NoError(t, err)
	res, err := f.service.SendMessage(ctx, f.userId, threadId, &dto.SendMessageRequest{Content: "Second question"})
	require.NoError(t, err)

	assert.False(t, res.TitlePending)
	assert.Len(t, f.jobs.payloads, 1)

	turns := f.llm.lastTurns()
	require.Len(t, turns, 5)
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "First question"},
		{Role: llm.RoleModel, Content: "First answer."},
		{Role: llm.RoleUser, Content: "Second question"},
	}, turns[2:])
	assert.Contains(t, turns[0].Content, "RECENT MEETING HISTORY:")
}

func TestSendMessage_TitledThreadSchedulesNothing(t *testing.T) {
	f := newChatFixture(t)
	threadId := f.thread(t, "Pipeline review")

	res, err := f.service.SendMessage(context.Background(), f.userId, threadId, &dto.SendMessageRequest{Content: "hi"})

	require.NoError(t, err)
	assert.False(t, res.TitlePending)
	assert.Empty(t, f.jobs.payloads)
}

func TestSendMessage_TitleQueueFailureDoesNotFailTurn(t *testing.T) {
	f := newChatFixture(t)
	threadId := f.thread(t, "")
	f.jobs.err = errors.New("queue closed")

	res, err := f.service.SendMessage(context.Background(), f.userId, threadId, &dto.SendMessageRequest{Content: "hi"})

	require.NoError(t, err)
	assert.False(t, res.TitlePending)
}

func TestSendMessage_ModelFailureKeepsUserMessage(t *testing.T) {
	cases := map[string]struct {
		err  error
		kind apperr.Kind
	}{
		"config":  {err: apperr.Newf(apperr.KindConfig, "gemini.chat", "missing api key"), kind: apperr.KindConfig},
		"status":  {err: llm.NewStatusError("gemini", 503, "overloaded"), kind: apperr.KindTransport},
		"untyped": {err: errors.New("connection reset"), kind: apperr.KindTransport},
		"parse":   {err: llm.ParseError("ollama", llm.ErrEmptyReply), kind: apperr.KindParse},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newChatFixture(t)
			threadId := f.thread(t, "")
			f.llm.err = tc.err

			res, err := f.service.SendMessage(context.Background(), f.userId, threadId, &dto.SendMessageRequest{Content: "Summarize John"})

			assert.Nil(t, res)
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperr.KindOf(err))

			stored := f.store.Messages(threadId)
			require.Len(t, stored, 1)
			assert.Equal(t, constant.ChatMessageRoleUser, stored[0].Role)
			assert.Empty(t, f.jobs.payloads)
			assert.Empty(t, f.recorder.Events)
		})
	}
}

func TestSendMessage_BlankReplyIsParseError(t *testing.T) {
	f := newChatFixture(t)
	threadId := f.thread(t, "")
	f.llm.replies = []string{"  \n "}

	_, err := f.service.SendMessage(context.Background(), f.userId, threadId, &dto.SendMessageRequest{Content: "hi"})

	assert.True(t, apperr.Is(err, apperr.KindParse))
	assert.ErrorIs(t, err, llm.ErrEmptyReply)
}

func TestSendMessage_ForeignThreadIsNotFound(t *testing.T) {
	f := newChatFixture(t)
	threadId := f.thread(t, "")

	_, err := f.service.SendMessage(context.Background(), uuid.New(), threadId, &dto.SendMessageRequest{Content: "hi"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.service.SendMessage(context.Background(), f.userId, uuid.New(), &dto.SendMessageRequest{Content: "hi"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Empty(t, f.llm.calls)
}

func TestGetMessages_ParsesCitations(t *testing.T) {
	f := newChatFixture(t)
	threadId := f.thread(t, "")
	f.llm.replies = []string{fmt.Sprintf("See [demo](meeting:%d).", f.demo.Id)}
	ctx := context.Background()

	_, err := f.service.SendMessage(ctx, f.userId, threadId, &dto.SendMessageRequest{
		Content:  "What happened?",
		Mentions: []dto.MentionDTO{{Email: " JOHN@example.com "}},
	})
	require.NoError(t, err)

	msgs, err := f.service.GetMessages(ctx, f.userId, threadId)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Empty(t, msgs[0].Citations)
	assert.Equal(t, "JOHN@example.com", msgs[0].Mentions[0].Email)
	assert.Equal(t, []dto.CitationDTO{{Label: "demo", MeetingId: f.demo.Id, InRefs: true}}, msgs[1].Citations)

	_, err = f.service.GetMessages(ctx, uuid.New(), threadId)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListThreads_OwnOnlyByActivity(t *testing.T) {
	f := newChatFixture(t)
	older := f.thread(t, "older")
	newer := f.thread(t, "newer")
	_, err := f.service.CreateThread(context.Background(), uuid.New(), &dto.CreateThreadRequest{})
	require.NoError(t, err)

	_, err = f.service.SendMessage(context.Background(), f.userId, older, &dto.SendMessageRequest{Content: "bump"})
	require.NoError(t, err)

	threads, err := f.service.ListThreads(context.Background(), f.userId)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, older, threads[0].Id)
	assert.Equal(t, newer, threads[1].Id)
}

func TestDeleteThread_CancelsTitleJob(t *testing.T) {
	f := newChatFixture(t)
	threadId := f.thread(t, "")
	ctx := context.Background()
	_, err := f.service.SendMessage(ctx, f.userId, threadId, &dto.SendMessageRequest{Content: "hi"})
	require.NoError(t, err)

	assert.True(t, apperr.Is(f.service.DeleteThread(ctx, uuid.New(), threadId), apperr.KindNotFound))

	require.NoError(t, f.service.DeleteThread(ctx, f.userId, threadId))
	assert.Equal(t, []uuid.UUID{threadId}, f.cancel.cancelled)
	assert.Nil(t, f.store.Thread(threadId))
	assert.Empty(t, f.store.Messages(threadId))
}
