package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dkarmanov/docuchat/internal/core/domain"
	"github.com/dkarmanov/docuchat/internal/core/ports"
)

// AskConfig carries the retrieval and presentation knobs for the pipeline.
type AskConfig struct {
	MinScore     float64 // gate threshold on the top fused score
	PromptTopN   int     // chunks fed to the prompt composer
	HistoryLimit int     // prior messages included as context framing
	PreviewChars int     // display truncation for the sources payload
}

func (c AskConfig) normalize() AskConfig {
	out := c
	if out.MinScore <= 0 {
		out.MinScore = 0.12
	}
	if out.PromptTopN <= 0 {
		out.PromptTopN = 5
	}
	if out.HistoryLimit <= 0 {
		out.HistoryLimit = 3
	}
	if out.PreviewChars <= 0 {
		out.PreviewChars = 300
	}
	return out
}

// AskUseCase runs the full question pipeline: cache, hybrid retrieval, gate,
// prompt composition, generation, post-processing, persistence.
type AskUseCase struct {
	embedder  ports.Embedder
	generator ports.CompletionClient
	retriever *Retriever
	sessions  ports.SessionStore
	cache     ports.AnswerCache
	cfg       AskConfig
}

func NewAskUseCase(
	embedder ports.Embedder,
	generator ports.CompletionClient,
	retriever *Retriever,
	sessions ports.SessionStore,
	cache ports.AnswerCache,
	cfg AskConfig,
) *AskUseCase {
	return &AskUseCase{
		embedder:  embedder,
		generator: generator,
		retriever: retriever,
		sessions:  sessions,
		cache:     cache,
		cfg:       cfg.normalize(),
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, sessionID int64, question string, useCache bool) (*domain.Answer, error) {
	if useCache {
		cached, ok, err := uc.cache.Lookup(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("cache lookup: %w", err)
		}
		if ok {
			if err := uc.sessions.AppendExchange(ctx, sessionID, question, cached); err != nil {
				return nil, fmt.Errorf("append cached exchange: %w", err)
			}
			return &domain.Answer{
				Text:      cached,
				SessionID: sessionID,
				Sources:   []domain.SourceRef{},
				FromCache: true,
				Outcome:   domain.OutcomeCacheHit,
			}, nil
		}
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	retrieved := uc.retriever.Retrieve(queryVector, question)
	if len(retrieved) == 0 || retrieved[0].Score < uc.cfg.MinScore {
		return uc.finish(ctx, sessionID, question, domain.SentinelAnswer, nil, domain.OutcomeGated)
	}

	top := retrieved
	if len(top) > uc.cfg.PromptTopN {
		top = top[:uc.cfg.PromptTopN]
	}

	history, err := uc.sessions.RecentMessages(ctx, sessionID, uc.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	prompt := buildAnswerPrompt(question, top, history)

	outcome := domain.OutcomeAnswered
	answer := ""
	raw, err := uc.generator.Complete(ctx, prompt)
	if err != nil {
		// Generation failures become the answer; the request never fails.
		slog.Error("generation_failed", "session_id", sessionID, "error", err)
		answer = fmt.Sprintf("Error generating answer: %v", err)
		outcome = domain.OutcomeGenerationFailure
	} else {
		answer = postProcessAnswer(raw, &top[0])
	}

	return uc.finish(ctx, sessionID, question, answer, top, outcome)
}

// finish persists the exchange and cache entry and shapes the response.
// Sentinel and error answers are cached like any other.
func (uc *AskUseCase) finish(
	ctx context.Context,
	sessionID int64,
	question, answer string,
	sources []domain.RetrievedChunk,
	outcome domain.AnswerOutcome,
) (*domain.Answer, error) {
	if err := uc.sessions.AppendExchange(ctx, sessionID, question, answer); err != nil {
		return nil, fmt.Errorf("append exchange: %w", err)
	}
	if err := uc.cache.Save(ctx, question, answer); err != nil {
		return nil, fmt.Errorf("save cache: %w", err)
	}

	refs := make([]domain.SourceRef, 0, len(sources))
	for _, s := range sources {
		refs = append(refs, domain.SourceRef{
			SourceID:     s.SourceID,
			ChunkID:      s.ChunkID,
			Page:         s.PageNumber,
			Text:         previewText(s.Text, uc.cfg.PreviewChars),
			Score:        s.Score,
			DenseScore:   s.DenseScore,
			LexicalScore: s.LexicalScore,
		})
	}

	return &domain.Answer{
		Text:      answer,
		SessionID: sessionID,
		Sources:   refs,
		Outcome:   outcome,
	}, nil
}

func previewText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
