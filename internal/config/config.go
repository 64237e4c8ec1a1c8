package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	SQLitePath string

	LLMProvider            string
	GenerateTimeoutSeconds int

	OllamaURL        string
	OllamaGenModel   string
	OllamaEmbedModel string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIGenModel   string
	OpenAIEmbedModel string

	RetrievalAlpha      float64
	RetrievalCandidates int
	RetrievalFinalK     int
	RetrievalMinScore   float64
	PromptTopN          int
	HistoryTurns        int
	PreviewChars        int

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxConcurrent  int
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		SQLitePath: mustEnv("SQLITE_PATH", "./data/corpus.db"),

		LLMProvider:            mustEnv("LLM_PROVIDER", "ollama"),
		GenerateTimeoutSeconds: mustEnvInt("GENERATE_TIMEOUT_SECONDS", 300),

		OllamaURL:        mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel:   mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),
		OllamaEmbedModel: mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		OpenAIAPIKey:     mustEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    mustEnv("OPENAI_BASE_URL", ""),
		OpenAIGenModel:   mustEnv("OPENAI_GEN_MODEL", "gpt-4o-mini"),
		OpenAIEmbedModel: mustEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),

		RetrievalAlpha:      mustEnvFloat("RETRIEVAL_ALPHA", 0.6),
		RetrievalCandidates: mustEnvInt("RETRIEVAL_CANDIDATES", 100),
		RetrievalFinalK:     mustEnvInt("RETRIEVAL_FINAL_K", 8),
		RetrievalMinScore:   mustEnvFloat("RETRIEVAL_MIN_SCORE", 0.12),
		PromptTopN:          mustEnvInt("PROMPT_TOP_N", 5),
		HistoryTurns:        mustEnvInt("HISTORY_TURNS", 3),
		PreviewChars:        mustEnvInt("PREVIEW_CHARS", 300),

		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 0),
		APIMaxConcurrent:  mustEnvInt("API_MAX_CONCURRENT", 0),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
