package llm

import (
	"context"

	"contact-assistant-be/pkg/apperr"
)

// Unconfigured stands in for a provider whose credentials are missing.
// Every call fails with a config error so the service can still boot.
type Unconfigured struct {
	Provider string
	Reason   string
}

var _ LLMProvider = (*Unconfigured)(nil)

func (u *Unconfigured) Name() string { return u.Provider }

func (u *Unconfigured) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return "", apperr.Newf(apperr.KindConfig, u.Provider+".chat", "%s is not configured: %s", u.Provider, u.Reason)
}

func (u *Unconfigured) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return u.Chat(ctx, nil, options...)
}
