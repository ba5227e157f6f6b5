package factory

import (
	"context"
	"testing"

	"contact-assistant-be/pkg/apperr"
	"contact-assistant-be/pkg/llm"
	"contact-assistant-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider_MissingKeyIsConfigError(t *testing.T) {
	for _, name := range []string{"gemini", "huggingface"} {
		p, err := NewLLMProvider(context.Background(), name, "m", "", "")
		require.NoError(t, err)
		assert.IsType(t, &llm.Unconfigured{}, p)

		_, err = p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
		assert.True(t, apperr.Is(err, apperr.KindConfig), name)
	}
}

func TestNewLLMProvider_Ollama(t *testing.T) {
	p, err := NewLLMProvider(context.Background(), "ollama", "llama3", "", "")
	require.NoError(t, err)
	o, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434", o.BaseURL)
}

func TestNewLLMProvider_Unknown(t *testing.T) {
	_, err := NewLLMProvider(context.Background(), "carrier-pigeon", "", "", "")
	assert.True(t, apperr.Is(err, apperr.KindConfig))
}
