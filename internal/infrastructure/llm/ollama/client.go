package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to a local Ollama server. The same client serves both query
// embedding and answer generation; generation can take minutes on CPU-only
// hosts, so the timeout is configurable and defaults high.
type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
}

func New(baseURL, genModel, embedModel string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": c.embedModel,
		"input": []string{text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := c.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	if len(response.Embeddings) == 0 || len(response.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama embed: empty embedding result")
	}
	return response.Embeddings[0], nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", request, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
