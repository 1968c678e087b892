package port

import "context"

// Generator abstracts the generative-language backend.
// Implementations can target Gemini, OpenAI, Ollama or any compatible API.
type Generator interface {
	// ModelName returns the identifier of the model being used.
	ModelName() string

	// Generate maps a single text prompt to a text completion.
	Generate(ctx context.Context, prompt string) (string, error)
}
