package ai

import (
	"context"
	"fmt"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Supported LLM providers.
const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
)

// LangChainProvider implements port.Generator on top of any langchaingo model.
type LangChainProvider struct {
	llm       llms.Model
	modelName string
}

// NewLangChainProvider wraps an existing langchaingo model.
func NewLangChainProvider(llm llms.Model, modelName string) *LangChainProvider {
	return &LangChainProvider{llm: llm, modelName: modelName}
}

// ModelName returns the model identifier.
func (p *LangChainProvider) ModelName() string {
	return p.modelName
}

// Generate sends a single human prompt and returns the first choice.
func (p *LangChainProvider) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, p.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out, nil
}

// Settings selects and configures a generator.
type Settings struct {
	Provider    string
	Model       string
	APIKey      string
	OllamaURL   string
	OllamaToken string
}

// NewGenerator builds the generator named by s.Provider.
func NewGenerator(ctx context.Context, s Settings) (port.Generator, error) {
	switch s.Provider {
	case ProviderGoogleAI:
		if s.APIKey == "" {
			return nil, fmt.Errorf("googleai: API key required (LLM_API_KEY or GEMINI_API_KEY)")
		}
		model, err := googleai.New(ctx,
			googleai.WithAPIKey(s.APIKey),
			googleai.WithDefaultModel(s.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create googleai model: %w", err)
		}
		return NewLangChainProvider(model, s.Model), nil

	case ProviderOpenAI:
		if s.APIKey == "" {
			return nil, fmt.Errorf("openai: API key required (LLM_API_KEY)")
		}
		model, err := openai.New(
			openai.WithToken(s.APIKey),
			openai.WithModel(s.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return NewLangChainProvider(model, s.Model), nil

	case ProviderOllama:
		return NewOllamaProvider(OllamaEndpointConfig{
			BaseURL: s.OllamaURL,
			Model:   s.Model,
			Token:   s.OllamaToken,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
