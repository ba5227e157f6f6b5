package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// AttemptObserver is told about every attempt and its outcome
// ("success", "retry", "failure").
type AttemptObserver func(provider, outcome string)

// Resilient wraps a provider with a per-attempt timeout and a bounded
// number of retries for transient failures.
type Resilient struct {
	inner      LLMProvider
	timeout    time.Duration
	maxRetries int
	interval   time.Duration
	observe    AttemptObserver
}

var _ LLMProvider = (*Resilient)(nil)

type ResilientOption func(*Resilient)

func WithRetryInterval(d time.Duration) ResilientOption {
	return func(r *Resilient) {
		r.interval = d
	}
}

func WithAttemptObserver(fn AttemptObserver) ResilientOption {
	return func(r *Resilient) {
		r.observe = fn
	}
}

func NewResilient(inner LLMProvider, timeout time.Duration, maxRetries int, opts ...ResilientOption) *Resilient {
	if maxRetries < 0 {
		maxRetries = 0
	}
	r := &Resilient{
		inner:      inner,
		timeout:    timeout,
		maxRetries: maxRetries,
		interval:   500 * time.Millisecond,
		observe:    func(string, string) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resilient) Name() string {
	return ProviderName(r.inner)
}

func (r *Resilient) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return r.do(ctx, func(attemptCtx context.Context) (string, error) {
		return r.inner.Chat(attemptCtx, history, options...)
	})
}

func (r *Resilient) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return r.do(ctx, func(attemptCtx context.Context) (string, error) {
		return r.inner.Generate(attemptCtx, prompt, options...)
	})
}

func (r *Resilient) do(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	name := r.Name()
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.interval
	attempt := 0

	operation := func() (string, error) {
		attemptCtx := ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}

		attempt++
		reply, err := call(attemptCtx)
		if err == nil {
			r.observe(name, "success")
			return reply, nil
		}
		if ctx.Err() != nil || !IsTransient(err) || attempt > r.maxRetries {
			r.observe(name, "failure")
			return "", backoff.Permanent(err)
		}
		r.observe(name, "retry")
		return "", err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.maxRetries+1)),
	)
}
