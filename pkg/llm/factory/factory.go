package factory

import (
	"context"

	"contact-assistant-be/pkg/apperr"
	"contact-assistant-be/pkg/llm"
	"contact-assistant-be/pkg/llm/gemini"
	"contact-assistant-be/pkg/llm/huggingface"
	"contact-assistant-be/pkg/llm/ollama"
)

// NewLLMProvider builds the configured backend. Backends that need an API
// key get an llm.Unconfigured stand-in when the key is empty, so the
// failure surfaces per request as a config error.
func NewLLMProvider(ctx context.Context, providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "gemini":
		if apiKey == "" {
			return &llm.Unconfigured{Provider: providerType, Reason: "missing API key"}, nil
		}
		return gemini.NewGeminiProvider(ctx, apiKey, baseURL, modelName)
	case "huggingface":
		if apiKey == "" {
			return &llm.Unconfigured{Provider: providerType, Reason: "missing API key"}, nil
		}
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, apperr.Newf(apperr.KindConfig, "llm.factory", "unsupported LLM provider: %s", providerType)
	}
}
