package llm

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"contact-assistant-be/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	mu      sync.Mutex
	errs    []error
	calls   int
	reply   string
	blockOn int
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	var err error
	if call <= len(s.errs) {
		err = s.errs[call-1]
	}
	s.mu.Unlock()

	if call == s.blockOn {
		<-ctx.Done()
		return "", TransportError("scripted", ctx.Err())
	}
	if err != nil {
		return "", err
	}
	return s.reply, nil
}

func (s *scriptedProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return s.Chat(ctx, nil, options...)
}

func TestResilient_RetriesTransientOnce(t *testing.T) {
	inner := &scriptedProvider{
		errs:  []error{NewStatusError("scripted", http.StatusServiceUnavailable, "busy")},
		reply: "hello",
	}
	var outcomes []string
	r := NewResilient(inner, time.Second, 1,
		WithRetryInterval(time.Millisecond),
		WithAttemptObserver(func(_, outcome string) { outcomes = append(outcomes, outcome) }),
	)

	reply, err := r.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})

	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, []string{"retry", "success"}, outcomes)
}

func TestResilient_GivesUpAfterBudget(t *testing.T) {
	inner := &scriptedProvider{
		errs: []error{
			NewStatusError("scripted", http.StatusTooManyRequests, "slow down"),
			NewStatusError("scripted", http.StatusBadGateway, "bad gateway"),
			NewStatusError("scripted", http.StatusBadGateway, "never reached"),
		},
	}
	r := NewResilient(inner, time.Second, 1, WithRetryInterval(time.Millisecond))

	_, err := r.Generate(context.Background(), "hi")

	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.True(t, apperr.Is(err, apperr.KindTransport))
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestResilient_DoesNotRetryPermanentFailures(t *testing.T) {
	cases := map[string]error{
		"bad request": NewStatusError("scripted", http.StatusBadRequest, "bad"),
		"parse":       ParseError("scripted", ErrEmptyReply),
		"config":      apperr.New(apperr.KindConfig, "scripted.chat", errors.New("no key")),
	}
	for name, failure := range cases {
		t.Run(name, func(t *testing.T) {
			inner := &scriptedProvider{errs: []error{failure}, reply: "unused"}
			r := NewResilient(inner, time.Second, 3, WithRetryInterval(time.Millisecond))

			_, err := r.Chat(context.Background(), nil)

			require.Error(t, err)
			assert.Equal(t, 1, inner.calls)
			assert.Equal(t, apperr.KindOf(failure), apperr.KindOf(err))
		})
	}
}

func TestResilient_PerAttemptTimeoutIsRetried(t *testing.T) {
	inner := &scriptedProvider{blockOn: 1, reply: "second time lucky"}
	r := NewResilient(inner, 20*time.Millisecond, 1, WithRetryInterval(time.Millisecond))

	reply, err := r.Chat(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "second time lucky", reply)
	assert.Equal(t, 2, inner.calls)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewStatusError("x", 500, "")))
	assert.True(t, IsTransient(NewStatusError("x", 429, "")))
	assert.False(t, IsTransient(NewStatusError("x", 401, "")))
	assert.True(t, IsTransient(TransportError("x", errors.New("connection reset"))))
	assert.False(t, IsTransient(TransportError("x", context.Canceled)))
	assert.False(t, IsTransient(ParseError("x", ErrEmptyReply)))
	assert.False(t, IsTransient(nil))
}
