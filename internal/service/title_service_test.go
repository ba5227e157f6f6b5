package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"contact-assistant-be/internal/dto"
	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/pkg/logger"
	"contact-assistant-be/internal/repository/fake"
	"contact-assistant-be/internal/repository/memory"
	"contact-assistant-be/internal/websocket"
	"contact-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type stubGenerator struct {
	title string
	err   error
	// block waits for ctx to end before returning
	block   bool
	started chan struct{}
	// blockOn blocks only for this question
	blockOn string
}

func (g *stubGenerator) Generate(ctx context.Context, question, answer string) (string, error) {
	if g.started != nil {
		close(g.started)
	}
	if g.block || (g.blockOn != "" && question == g.blockOn) {
		<-ctx.Done()
		return question, ctx.Err()
	}
	return g.title, g.err
}

type notification struct {
	userID    uuid.UUID
	eventType string
	data      interface{}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(userID uuid.UUID, eventType string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{userID: userID, eventType: eventType, data: data})
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type titleFixture struct {
	store     *fake.Store
	thread    *entity.Thread
	generator *stubGenerator
	registry  *memory.TitleJobRepository
	notifier  *recordingNotifier
	recorder  *events.Recorder
}

func newTitleFixture(t *testing.T) *titleFixture {
	t.Helper()
	store := fake.NewStore()
	thread := &entity.Thread{Id: uuid.New(), UserId: uuid.New(), LastActivityAt: time.Now()}
	require.NoError(t, store.NewUnitOfWork(context.Background()).ThreadRepository().Create(context.Background(), thread))
	return &titleFixture{
		store:     store,
		thread:    thread,
		generator: &stubGenerator{title: "Acme renewal timeline"},
		registry:  memory.NewTitleJobRepository(time.Minute),
		notifier:  &recordingNotifier{},
		recorder:  &events.Recorder{},
	}
}

func (f *titleFixture) service(subscriber message.Subscriber) ITitleService {
	return NewTitleService(subscriber, "titles", f.store, f.generator, f.registry, f.notifier, f.recorder, logger.NewNopLogger(), time.Second, 2)
}

func (f *titleFixture) job() dto.TitleJobMessage {
	return dto.TitleJobMessage{
		ThreadId: f.thread.Id,
		UserId:   f.thread.UserId,
		Question: "When is Acme renewing their contract with us this year?",
		Answer:   "In March.",
	}
}

func TestTitleService_StoresTitleAndNotifies(t *testing.T) {
	f := newTitleFixture(t)

	outcome := f.service(nil).Process(context.Background(), f.job())

	assert.Equal(t, TitleOutcomeTitled, outcome)
	require.NotNil(t, f.store.Thread(f.thread.Id).Title)
	assert.Equal(t, "Acme renewal timeline", *f.store.Thread(f.thread.Id).Title)

	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, f.thread.UserId, f.notifier.sent[0].userID)
	assert.Equal(t, websocket.EventThreadTitleUpdated, f.notifier.sent[0].eventType)

	titled := f.recorder.OfType(events.TypeThreadTitled)
	require.Len(t, titled, 1)
	assert.Equal(t, false, titled[0].Payload()["fallback"])
	assert.False(t, f.registry.Running(f.thread.Id))
}

func TestTitleService_FallbackOnGeneratorError(t *testing.T) {
	f := newTitleFixture(t)
	f.generator.title = "When is Acme renewing their contract with us this..."
	f.generator.err = errors.New("model unavailable")

	outcome := f.service(nil).Process(context.Background(), f.job())

	assert.Equal(t, TitleOutcomeFallback, outcome)
	assert.Equal(t, "When is Acme renewing their contract with us this...", *f.store.Thread(f.thread.Id).Title)
	assert.Equal(t, true, f.recorder.OfType(events.TypeThreadTitled)[0].Payload()["fallback"])
}

func TestTitleService_SecondJobDoesNotOverwrite(t *testing.T) {
	f := newTitleFixture(t)
	svc := f.service(nil)

	assert.Equal(t, TitleOutcomeTitled, svc.Process(context.Background(), f.job()))
	f.generator.title = "Something else"
	assert.Equal(t, TitleOutcomeAlready, svc.Process(context.Background(), f.job()))

	assert.Equal(t, "Acme renewal timeline", *f.store.Thread(f.thread.Id).Title)
	assert.Equal(t, 1, f.notifier.count())
	assert.Len(t, f.recorder.Events, 1)
}

func TestTitleService_SkipsWhenJobAlreadyRunning(t *testing.T) {
	f := newTitleFixture(t)
	require.True(t, f.registry.Claim(f.thread.Id, func() {}))

	outcome := f.service(nil).Process(context.Background(), f.job())

	assert.Equal(t, TitleOutcomeDuplicate, outcome)
	assert.Nil(t, f.store.Thread(f.thread.Id).Title)
}

func TestTitleService_CancelStopsJob(t *testing.T) {
	f := newTitleFixture(t)
	f.generator.block = true
	f.generator.started = make(chan struct{})

	done := make(chan string, 1)
	go func() { done <- f.service(nil).Process(context.Background(), f.job()) }()

	<-f.generator.started
	require.Eventually(t, func() bool { return f.registry.Cancel(f.thread.Id) }, time.Second, 5*time.Millisecond)

	select {
	case outcome := <-done:
		assert.Equal(t, TitleOutcomeCancelled, outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop")
	}
	assert.Nil(t, f.store.Thread(f.thread.Id).Title)
	assert.Zero(t, f.notifier.count())
}

func TestTitleService_ConsumesFromQueue(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newTitleFixture(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, f.service(pubSub).Consume(ctx))

	jobs := NewPublisherService("titles", pubSub)
	require.NoError(t, jobs.Publish(ctx, []byte("{not json")))
	payload, err := json.Marshal(f.job())
	require.NoError(t, err)
	require.NoError(t, jobs.Publish(ctx, payload))

	require.Eventually(t, func() bool { return f.notifier.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Acme renewal timeline", *f.store.Thread(f.thread.Id).Title)

	cancel()
	require.NoError(t, pubSub.Close())
}

func TestTitleService_SlowJobDoesNotDelayOtherThreads(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newTitleFixture(t)
	other := &entity.Thread{Id: uuid.New(), UserId: f.thread.UserId, LastActivityAt: time.Now()}
	require.NoError(t, f.store.NewUnitOfWork(context.Background()).ThreadRepository().Create(context.Background(), other))

	slow := f.job()
	f.generator.blockOn = slow.Question
	fast := dto.TitleJobMessage{ThreadId: other.Id, UserId: other.UserId, Question: "Pricing for Initech?", Answer: "Annual."}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.service(pubSub).Consume(ctx))

	jobs := NewPublisherService("titles", pubSub)
	for _, job := range []dto.TitleJobMessage{slow, fast} {
		payload, err := json.Marshal(job)
		require.NoError(t, err)
		require.NoError(t, jobs.Publish(ctx, payload))
	}

	require.Eventually(t, func() bool { return f.store.Thread(other.Id).Title != nil }, 500*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, "Acme renewal timeline", *f.store.Thread(other.Id).Title)
	require.Eventually(t, func() bool { return f.registry.Running(f.thread.Id) }, time.Second, 5*time.Millisecond)
	assert.Nil(t, f.store.Thread(f.thread.Id).Title)

	cancel()
	require.Eventually(t, func() bool { return !f.registry.Running(f.thread.Id) }, time.Second, 5*time.Millisecond)
	require.NoError(t, pubSub.Close())
}

func TestTitleService_OverlappingJobOnSameThreadIsDuplicate(t *testing.T) {
	f := newTitleFixture(t)
	f.generator.block = true
	f.generator.started = make(chan struct{})
	svc := f.service(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan string, 1)
	go func() { done <- svc.Process(ctx, f.job()) }()
	<-f.generator.started

	assert.Equal(t, TitleOutcomeDuplicate, svc.Process(context.Background(), f.job()))

	cancel()
	assert.Equal(t, TitleOutcomeCancelled, <-done)
}
