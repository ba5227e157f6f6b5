package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"contact-assistant-be/pkg/apperr"
	"contact-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceProvider_Chat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Quarterly sync"}}]}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("hf-key", srv.URL, "mistral")
	reply, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "q"},
		{Role: llm.RoleModel, Content: "a"},
	}, llm.WithModel("override"))

	require.NoError(t, err)
	assert.Equal(t, "Quarterly sync", reply)
	assert.Equal(t, "override", got.Model)
	assert.Equal(t, []chatMessage{{Role: "user", Content: "q"}, {Role: "assistant", Content: "a"}}, got.Messages)
}

func TestHuggingFaceProvider_StatusAndEmpty(t *testing.T) {
	status := http.StatusUnauthorized
	body := `{"error":{"message":"bad token"}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()
	p := NewHuggingFaceProvider("k", srv.URL, "m")

	_, err := p.Generate(context.Background(), "hi")
	var statusErr *llm.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.False(t, llm.IsTransient(err))

	status, body = http.StatusOK, `{"choices":[]}`
	_, err = p.Generate(context.Background(), "hi")
	assert.True(t, apperr.Is(err, apperr.KindParse))
}
