package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"contact-assistant-be/internal/constant"
	"contact-assistant-be/internal/dto"
	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/pkg/logger"
	"contact-assistant-be/internal/repository/specification"
	"contact-assistant-be/internal/repository/unitofwork"
	"contact-assistant-be/pkg/apperr"
	"contact-assistant-be/pkg/events"
	"contact-assistant-be/pkg/grounding/bundle"
	"contact-assistant-be/pkg/grounding/prompt"
	"contact-assistant-be/pkg/llm"
	"contact-assistant-be/pkg/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var chatTracer = otel.Tracer("contact-assistant-be/chat")

type IChatService interface {
	CreateThread(ctx context.Context, userId uuid.UUID, req *dto.CreateThreadRequest) (*dto.ThreadResponse, error)
	ListThreads(ctx context.Context, userId uuid.UUID) ([]*dto.ThreadResponse, error)
	GetMessages(ctx context.Context, userId, threadId uuid.UUID) ([]*dto.MessageResponse, error)
	SendMessage(ctx context.Context, userId, threadId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	DeleteThread(ctx context.Context, userId, threadId uuid.UUID) error
}

// ContextAssembler builds the grounding bundle for a turn.
type ContextAssembler interface {
	Assemble(ctx context.Context, userId uuid.UUID, mention entity.Mention) *bundle.ContextBundle
}

// TitleJobCanceller stops a pending title job for a thread.
type TitleJobCanceller interface {
	Cancel(threadId uuid.UUID) bool
}

type chatService struct {
	uowFactory   unitofwork.RepositoryFactory
	assembler    ContextAssembler
	llmProvider  llm.LLMProvider
	titleJobs    IPublisherService
	titleCancel  TitleJobCanceller
	events       events.Publisher
	logger       logger.ILogger
	historyLimit int
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	assembler ContextAssembler,
	llmProvider llm.LLMProvider,
	titleJobs IPublisherService,
	titleCancel TitleJobCanceller,
	eventPublisher events.Publisher,
	log logger.ILogger,
	historyLimit int,
) IChatService {
	if eventPublisher == nil {
		eventPublisher = events.Nop{}
	}
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &chatService{
		uowFactory:   uowFactory,
		assembler:    assembler,
		llmProvider:  llmProvider,
		titleJobs:    titleJobs,
		titleCancel:  titleCancel,
		events:       eventPublisher,
		logger:       log,
		historyLimit: historyLimit,
	}
}

func (s *chatService) CreateThread(ctx context.Context, userId uuid.UUID, req *dto.CreateThreadRequest) (*dto.ThreadResponse, error) {
	now := time.Now()
	thread := &entity.Thread{
		Id:             uuid.New(),
		UserId:         userId,
		LastActivityAt: now,
		CreatedAt:      now,
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		thread.Title = &title
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ThreadRepository().Create(ctx, thread); err != nil {
		return nil, apperr.New(apperr.KindInternal, "chat.CreateThread", err)
	}
	return toThreadResponse(thread), nil
}

func (s *chatService) ListThreads(ctx context.Context, userId uuid.UUID) ([]*dto.ThreadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	threads, err := uow.ThreadRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "last_activity_at", Desc: true},
	)
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, "chat.ListThreads", err)
	}

	res := make([]*dto.ThreadResponse, 0, len(threads))
	for _, t := range threads {
		res = append(res, toThreadResponse(t))
	}
	return res, nil
}

func (s *chatService) GetMessages(ctx context.Context, userId, threadId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.ownedThread(ctx, uow, userId, threadId, "chat.GetMessages"); err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: threadId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, "chat.GetMessages", err)
	}

	res := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, toMessageResponse(m))
	}
	return res, nil
}

// SendMessage runs one turn. The user message is stored before the model
// is called and stays stored when the call fails.
func (s *chatService) SendMessage(ctx context.Context, userId, threadId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	ctx, span := chatTracer.Start(ctx, "chat.send_message")
	defer span.End()
	span.SetAttributes(attribute.String("thread.id", threadId.String()))

	uow := s.uowFactory.NewUnitOfWork(ctx)
	thread, err := s.ownedThread(ctx, uow, userId, threadId, "chat.SendMessage")
	if err != nil {
		return nil, err
	}

	// received -> user_persisted
	userMessage := &entity.Message{
		Id:        uuid.New(),
		ThreadId:  threadId,
		Role:      constant.ChatMessageRoleUser,
		Content:   req.Content,
		Metadata:  entity.MessageMetadata{Mentions: toMentions(req.Mentions)},
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, userMessage); err != nil {
		metrics.RecordTurn("persist_error")
		return nil, apperr.New(apperr.KindInternal, "chat.SendMessage", err)
	}
	s.touch(ctx, uow, threadId)

	userTurns, err := uow.MessageRepository().Count(ctx,
		specification.ByThreadID{ThreadID: threadId},
		specification.ByRole{Role: constant.ChatMessageRoleUser},
	)
	if err != nil {
		s.logger.Warn(constant.ChatLogModule, "Failed to count user messages", map[string]interface{}{
			"thread_id": threadId,
			"error":     err.Error(),
		})
	}
	firstTurn := err == nil && userTurns == 1

	// user_persisted -> resolved -> context_gathered
	assembleCtx, assembleSpan := chatTracer.Start(ctx, "chat.assemble_context")
	b := s.assembler.Assemble(assembleCtx, userId, userMessage.Metadata.PrimaryMention())
	assembleSpan.SetAttributes(
		attribute.String("resolver.case", string(b.Case)),
		attribute.String("evidence.tier", string(b.Tier)),
		attribute.Int("meetings.count", len(b.Surfaced())),
	)
	assembleSpan.End()
	metrics.RecordEvidenceTier(string(b.Tier))

	// context_gathered -> prompt_built
	history := s.history(ctx, uow, threadId)
	p := prompt.Build(b, history, req.Content)

	// prompt_built -> model_invoked
	reply, err := s.callModel(ctx, p.Turns)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		s.logger.Error(constant.ChatLogModule, "Model call failed", map[string]interface{}{
			"user_id":   userId,
			"thread_id": threadId,
			"kind":      string(apperr.KindOf(err)),
			"error":     err.Error(),
		})
		metrics.RecordTurn("model_error")
		return nil, err
	}

	// model_invoked -> assistant_persisted
	assistantMessage := &entity.Message{
		Id:        uuid.New(),
		ThreadId:  threadId,
		Role:      constant.ChatMessageRoleAssistant,
		Content:   reply,
		Metadata:  entity.MessageMetadata{MeetingRefs: p.MeetingRefs},
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, assistantMessage); err != nil {
		metrics.RecordTurn("persist_error")
		return nil, apperr.New(apperr.KindInternal, "chat.SendMessage", err)
	}
	s.touch(ctx, uow, threadId)
	metrics.RecordTurn("ok")

	if err := s.events.Publish(ctx, events.TurnCompleted(threadId, userId, userMessage.Id, assistantMessage.Id, string(b.Tier), len(p.MeetingRefs))); err != nil {
		s.logger.Warn(constant.EventsLogModule, "Failed to publish turn event", map[string]interface{}{
			"thread_id": threadId,
			"error":     err.Error(),
		})
	}

	// assistant_persisted -> title_scheduled
	titlePending := false
	if !thread.HasTitle() && firstTurn {
		titlePending = s.scheduleTitle(ctx, dto.TitleJobMessage{
			ThreadId: threadId,
			UserId:   userId,
			Question: req.Content,
			Answer:   reply,
		})
	}

	return &dto.SendMessageResponse{
		ThreadId:     threadId,
		Sent:         toMessageResponse(userMessage),
		Reply:        toMessageResponse(assistantMessage),
		EvidenceTier: string(b.Tier),
		TitlePending: titlePending,
	}, nil
}

func (s *chatService) DeleteThread(ctx context.Context, userId, threadId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.ownedThread(ctx, uow, userId, threadId, "chat.DeleteThread"); err != nil {
		return err
	}

	if s.titleCancel != nil && s.titleCancel.Cancel(threadId) {
		s.logger.Info(constant.TitleLogModule, "Cancelled pending title job", map[string]interface{}{"thread_id": threadId})
	}

	if err := uow.Begin(ctx); err != nil {
		return apperr.New(apperr.KindInternal, "chat.DeleteThread", err)
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteByThreadId(ctx, threadId); err != nil {
		return apperr.New(apperr.KindInternal, "chat.DeleteThread", err)
	}
	if err := uow.ThreadRepository().Delete(ctx, threadId); err != nil {
		return apperr.New(apperr.KindInternal, "chat.DeleteThread", err)
	}
	if err := uow.Commit(); err != nil {
		return apperr.New(apperr.KindInternal, "chat.DeleteThread", err)
	}
	return nil
}

func (s *chatService) ownedThread(ctx context.Context, uow unitofwork.UnitOfWork, userId, threadId uuid.UUID, op string) (*entity.Thread, error) {
	thread, err := uow.ThreadRepository().FindOne(ctx,
		specification.ByID{ID: threadId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, op, err)
	}
	if thread == nil {
		return nil, apperr.Newf(apperr.KindNotFound, op, "thread %s not found", threadId)
	}
	return thread, nil
}

func (s *chatService) touch(ctx context.Context, uow unitofwork.UnitOfWork, threadId uuid.UUID) {
	if err := uow.ThreadRepository().Touch(ctx, threadId, time.Now()); err != nil {
		s.logger.Warn(constant.ChatLogModule, "Failed to touch thread", map[string]interface{}{
			"thread_id": threadId,
			"error":     err.Error(),
		})
	}
}

// history returns the newest messages in chronological order.
func (s *chatService) history(ctx context.Context, uow unitofwork.UnitOfWork, threadId uuid.UUID) []*entity.Message {
	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: threadId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Limit{N: s.historyLimit},
	)
	if err != nil {
		s.logger.Warn(constant.ChatLogModule, "Failed to load history", map[string]interface{}{
			"thread_id": threadId,
			"error":     err.Error(),
		})
		return nil
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages
}

func (s *chatService) callModel(ctx context.Context, turns []llm.Message) (string, error) {
	ctx, span := chatTracer.Start(ctx, "chat.model_call")
	defer span.End()

	provider := llm.ProviderName(s.llmProvider)
	span.SetAttributes(attribute.String("llm.provider", provider), attribute.Int("llm.turns", len(turns)))

	start := time.Now()
	reply, err := s.llmProvider.Chat(ctx, turns)
	metrics.RecordModelLatency(provider, time.Since(start).Seconds())
	if err != nil {
		var typed *apperr.Error
		if errors.As(err, &typed) {
			return "", err
		}
		return "", apperr.New(apperr.KindTransport, "chat.model_call", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", apperr.New(apperr.KindParse, "chat.model_call", llm.ErrEmptyReply)
	}
	return reply, nil
}

func (s *chatService) scheduleTitle(ctx context.Context, job dto.TitleJobMessage) bool {
	if s.titleJobs == nil {
		return false
	}
	payload, err := json.Marshal(job)
	if err == nil {
		err = s.titleJobs.Publish(ctx, payload)
	}
	if err != nil {
		s.logger.Warn(constant.TitleLogModule, "Failed to schedule title job", map[string]interface{}{
			"thread_id": job.ThreadId,
			"user_id":   job.UserId,
			"error":     err.Error(),
		})
		return false
	}
	return true
}

func toThreadResponse(t *entity.Thread) *dto.ThreadResponse {
	return &dto.ThreadResponse{
		Id:             t.Id,
		Title:          t.Title,
		LastActivityAt: t.LastActivityAt,
		CreatedAt:      t.CreatedAt,
	}
}

func toMentions(in []dto.MentionDTO) []entity.Mention {
	if len(in) == 0 {
		return nil
	}
	out := make([]entity.Mention, 0, len(in))
	for _, m := range in {
		out = append(out, entity.Mention{
			ContactId: m.ContactId,
			Email:     strings.TrimSpace(m.Email),
			CrmData:   m.CrmData,
			Name:      strings.TrimSpace(m.Name),
		})
	}
	return out
}

func toMessageResponse(m *entity.Message) *dto.MessageResponse {
	res := &dto.MessageResponse{
		Id:        m.Id,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}

	for _, mention := range m.Metadata.Mentions {
		res.Mentions = append(res.Mentions, dto.MentionDTO{
			ContactId: mention.ContactId,
			Email:     mention.Email,
			CrmData:   mention.CrmData,
			Name:      mention.Name,
		})
	}

	if m.Role != constant.ChatMessageRoleAssistant {
		return res
	}

	known := make(map[int64]bool, len(m.Metadata.MeetingRefs))
	for _, ref := range m.Metadata.MeetingRefs {
		known[ref.MeetingId] = true
		res.MeetingRefs = append(res.MeetingRefs, dto.MeetingRefDTO{
			MeetingId: ref.MeetingId,
			Title:     ref.Title,
			Date:      ref.Date,
		})
	}
	for _, c := range prompt.ParseCitations(m.Content) {
		res.Citations = append(res.Citations, dto.CitationDTO{
			Label:     c.Label,
			MeetingId: c.MeetingId,
			InRefs:    known[c.MeetingId],
		})
	}
	return res
}
