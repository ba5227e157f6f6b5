package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"contact-assistant-be/pkg/apperr"
)

// StatusError is a non-success HTTP response from a model backend.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, truncate(e.Body, 300))
}

func NewStatusError(provider string, statusCode int, body string) error {
	return apperr.New(apperr.KindTransport, provider+".chat", &StatusError{
		Provider:   provider,
		StatusCode: statusCode,
		Body:       body,
	})
}

func TransportError(provider string, err error) error {
	return apperr.New(apperr.KindTransport, provider+".chat", err)
}

func ParseError(provider string, err error) error {
	return apperr.New(apperr.KindParse, provider+".chat", err)
}

var ErrEmptyReply = errors.New("model reply contained no text")

// IsTransient reports whether a failed call is worth retrying: network
// failures, per-attempt timeouts, 429 and 5xx responses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return apperr.Is(err, apperr.KindTransport) || errors.Is(err, context.DeadlineExceeded)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
