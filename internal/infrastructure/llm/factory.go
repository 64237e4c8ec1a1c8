package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/dkarmanov/docuchat/internal/core/ports"
	"github.com/dkarmanov/docuchat/internal/infrastructure/llm/ollama"
	"github.com/dkarmanov/docuchat/internal/infrastructure/llm/openai"
)

// Backend is one model provider serving both halves of the pipeline: query
// embedding and answer generation.
type Backend interface {
	ports.Embedder
	ports.CompletionClient
}

type Settings struct {
	Provider        string
	GenerateTimeout time.Duration

	OllamaBaseURL    string
	OllamaGenModel   string
	OllamaEmbedModel string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIGenModel   string
	OpenAIEmbedModel string
}

// NewBackend selects the model provider. Embeddings must come from the same
// model family that embedded the corpus, so the provider is a deploy-time
// choice, not a per-request one.
func NewBackend(s Settings) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", "ollama":
		return ollama.New(s.OllamaBaseURL, s.OllamaGenModel, s.OllamaEmbedModel, s.GenerateTimeout), nil
	case "openai":
		if s.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("llm: openai provider requires an api key")
		}
		return openai.New(s.OpenAIAPIKey, s.OpenAIBaseURL, s.OpenAIGenModel, s.OpenAIEmbedModel, s.GenerateTimeout), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", s.Provider)
	}
}
