package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"contact-assistant-be/internal/constant"
	"contact-assistant-be/internal/dto"
	"contact-assistant-be/internal/pkg/logger"
	"contact-assistant-be/internal/repository/unitofwork"
	"contact-assistant-be/internal/websocket"
	"contact-assistant-be/pkg/events"
	"contact-assistant-be/pkg/metrics"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	TitleOutcomeTitled    = "titled"
	TitleOutcomeFallback  = "fallback"
	TitleOutcomeDuplicate = "duplicate"
	TitleOutcomeAlready   = "already_titled"
	TitleOutcomeCancelled = "cancelled"
	TitleOutcomeError     = "error"
)

type ITitleService interface {
	Consume(ctx context.Context) error
	Process(ctx context.Context, job dto.TitleJobMessage) string
}

// TitleGenerator returns a title and, on failure, the fallback title plus the cause.
type TitleGenerator interface {
	Generate(ctx context.Context, question, answer string) (string, error)
}

// TitleJobRegistry allows one running job per thread.
type TitleJobRegistry interface {
	Claim(threadId uuid.UUID, cancel context.CancelFunc) bool
	Release(threadId uuid.UUID)
}

// ThreadNotifier pushes realtime events to a user's sockets.
type ThreadNotifier interface {
	Notify(userID uuid.UUID, eventType string, data interface{})
}

type titleService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	generator  TitleGenerator
	registry   TitleJobRegistry
	notifier   ThreadNotifier
	events     events.Publisher
	logger     logger.ILogger
	timeout    time.Duration
	workers    int
}

func NewTitleService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	generator TitleGenerator,
	registry TitleJobRegistry,
	notifier ThreadNotifier,
	eventPublisher events.Publisher,
	log logger.ILogger,
	timeout time.Duration,
	workers int,
) ITitleService {
	if eventPublisher == nil {
		eventPublisher = events.Nop{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if workers <= 0 {
		workers = 1
	}
	return &titleService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		generator:  generator,
		registry:   registry,
		notifier:   notifier,
		events:     eventPublisher,
		logger:     log,
		timeout:    timeout,
		workers:    workers,
	}
}

// Consume processes jobs until ctx is done or the subscriber closes.
// Up to workers jobs run at once; the registry keeps one per thread.
func (s *titleService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		var g errgroup.Group
		g.SetLimit(s.workers)
		for msg := range messages {
			job, ok := s.decode(msg)
			// Jobs are never redelivered; every failure already degrades to a
			// fallback. Acking on receipt lets the subscriber hand over the next one.
			msg.Ack()
			if !ok {
				continue
			}
			g.Go(func() error {
				s.Process(ctx, job)
				return nil
			})
		}
		_ = g.Wait()
	}()

	return nil
}

func (s *titleService) decode(msg *message.Message) (dto.TitleJobMessage, bool) {
	var job dto.TitleJobMessage
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		s.logger.Warn(constant.TitleLogModule, "Dropping malformed title job", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return job, false
	}
	return job, true
}

// Process runs one job and returns its outcome.
func (s *titleService) Process(ctx context.Context, job dto.TitleJobMessage) string {
	outcome := s.process(ctx, job)
	metrics.RecordTitleJob(outcome)
	return outcome
}

func (s *titleService) process(ctx context.Context, job dto.TitleJobMessage) string {
	details := map[string]interface{}{
		"thread_id": job.ThreadId,
		"user_id":   job.UserId,
	}

	jobCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if !s.registry.Claim(job.ThreadId, cancel) {
		s.logger.Info(constant.TitleLogModule, "Title job already running", details)
		return TitleOutcomeDuplicate
	}
	defer s.registry.Release(job.ThreadId)

	title, genErr := s.generator.Generate(jobCtx, job.Question, job.Answer)
	if errors.Is(jobCtx.Err(), context.Canceled) {
		s.logger.Info(constant.TitleLogModule, "Title job cancelled", details)
		return TitleOutcomeCancelled
	}
	fallback := genErr != nil
	if fallback {
		details["error"] = genErr.Error()
		s.logger.Warn(constant.TitleLogModule, "Title generation failed, using fallback", details)
	}

	// The write must not depend on the model deadline
	writeCtx, writeCancel := context.WithTimeout(context.WithoutCancel(jobCtx), 5*time.Second)
	defer writeCancel()

	uow := s.uowFactory.NewUnitOfWork(writeCtx)
	changed, err := uow.ThreadRepository().SetTitleIfNull(writeCtx, job.ThreadId, title)
	if err != nil {
		details["error"] = err.Error()
		s.logger.Warn(constant.TitleLogModule, "Failed to store thread title", details)
		return TitleOutcomeError
	}
	if !changed {
		return TitleOutcomeAlready
	}

	if s.notifier != nil {
		s.notifier.Notify(job.UserId, websocket.EventThreadTitleUpdated, map[string]interface{}{
			"thread_id": job.ThreadId,
			"title":     title,
		})
	}
	if err := s.events.Publish(writeCtx, events.ThreadTitled(job.ThreadId, job.UserId, title, fallback)); err != nil {
		s.logger.Warn(constant.EventsLogModule, "Failed to publish title event", map[string]interface{}{
			"thread_id": job.ThreadId,
			"error":     err.Error(),
		})
	}

	if fallback {
		return TitleOutcomeFallback
	}
	return TitleOutcomeTitled
}
