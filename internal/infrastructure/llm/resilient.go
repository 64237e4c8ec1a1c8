package llm

import (
	"context"
	"errors"
	"net"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/dkarmanov/docuchat/internal/core/domain"
	"github.com/dkarmanov/docuchat/internal/infrastructure/llm/ollama"
	"github.com/dkarmanov/docuchat/internal/infrastructure/resilience"
)

// Resilient decorates a backend with retries and circuit breaking. Embedding
// and generation run under separate breakers: a slow generation model must
// not lock out the much cheaper embed calls.
type Resilient struct {
	backend Backend
	exec    *resilience.Executor
}

func WithResilience(backend Backend, exec *resilience.Executor) *Resilient {
	return &Resilient{backend: backend, exec: exec}
}

func (r *Resilient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := r.exec.Run(ctx, "embed", classifyModelError, func(ctx context.Context) error {
		vector, err := r.backend.EmbedQuery(ctx, text)
		if err != nil {
			return err
		}
		out = vector
		return nil
	})
	return out, markTemporary("embed", err)
}

func (r *Resilient) Complete(ctx context.Context, prompt string) (string, error) {
	var out string
	err := r.exec.Run(ctx, "generate", classifyModelError, func(ctx context.Context) error {
		answer, err := r.backend.Complete(ctx, prompt)
		if err != nil {
			return err
		}
		out = answer
		return nil
	})
	return out, markTemporary("generate", err)
}

// classifyModelError decides retry and breaker treatment for a provider
// failure. Cancellation is the caller's doing and counts against nothing.
func classifyModelError(err error) resilience.Outcome {
	if err == nil {
		return resilience.Outcome{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{Retry: false, Count: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.Outcome{Retry: true, Count: true}
	}

	if status, ok := httpStatusOf(err); ok {
		if isRetryableStatus(status) {
			return resilience.Outcome{Retry: true, Count: true}
		}
		return resilience.Outcome{Retry: false, Count: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Outcome{Retry: true, Count: true}
	}

	return resilience.Outcome{Retry: false, Count: true}
}

func httpStatusOf(err error) (int, bool) {
	var ollamaErr *ollama.HTTPStatusError
	if errors.As(err, &ollamaErr) {
		return ollamaErr.StatusCode, true
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// markTemporary tags retry-worthy failures so the HTTP layer can answer 503
// instead of 500.
func markTemporary(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyModelError(err).Retry || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
