package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// Client serves embedding and generation through an OpenAI-compatible API.
type Client struct {
	api        *openai.Client
	genModel   string
	embedModel string
}

func New(apiKey, baseURL, genModel, embedModel string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout > 0 {
		cfg.HTTPClient.Timeout = timeout
	}
	return &Client{
		api:        openai.NewClientWithConfig(cfg),
		genModel:   genModel,
		embedModel: embedModel,
	}
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embed: empty embedding result")
	}

	raw := resp.Data[0].Embedding
	vector := make([]float32, len(raw))
	for i := range raw {
		vector[i] = float32(raw[i])
	}
	return vector, nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.genModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai generate: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
