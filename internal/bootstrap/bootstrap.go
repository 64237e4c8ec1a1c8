package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dkarmanov/docuchat/internal/config"
	"github.com/dkarmanov/docuchat/internal/core/domain"
	"github.com/dkarmanov/docuchat/internal/core/ports"
	"github.com/dkarmanov/docuchat/internal/core/usecase"
	"github.com/dkarmanov/docuchat/internal/index"
	"github.com/dkarmanov/docuchat/internal/infrastructure/llm"
	"github.com/dkarmanov/docuchat/internal/infrastructure/repository/sqlite"
	"github.com/dkarmanov/docuchat/internal/infrastructure/resilience"
	"github.com/dkarmanov/docuchat/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Catalog *index.Catalog
	Metrics *metrics.Metrics
	Alpha   *usecase.AlphaCell

	AskUC     *usecase.AskUseCase
	SessionUC *usecase.SessionUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := sqlite.OpenDB(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open corpus database: %w", err)
	}

	sessions := sqlite.NewSessionStore(db)
	if err := sessions.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	cache := sqlite.NewAnswerCache(db)

	catalog, skips, err := loadCatalog(ctx, sqlite.NewChunkLoader(db))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("corpus %q: %w", cfg.SQLitePath, err)
	}

	skippedRows := 0
	for _, skip := range skips {
		skippedRows += skip.Rows
	}
	m := metrics.New("docuchat-api")
	m.RecordCorpusLoad(catalog.Len(), len(catalog.Tables()), skippedRows)
	slog.Info("corpus_loaded",
		"chunks", catalog.Len(),
		"tables", len(catalog.Tables()),
		"skipped_tables", len(skips),
		"skipped_rows", skippedRows,
	)

	backend, err := llm.NewBackend(llm.Settings{
		Provider:         cfg.LLMProvider,
		GenerateTimeout:  time.Duration(cfg.GenerateTimeoutSeconds) * time.Second,
		OllamaBaseURL:    cfg.OllamaURL,
		OllamaGenModel:   cfg.OllamaGenModel,
		OllamaEmbedModel: cfg.OllamaEmbedModel,
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		OpenAIGenModel:   cfg.OpenAIGenModel,
		OpenAIEmbedModel: cfg.OpenAIEmbedModel,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init model backend: %w", err)
	}
	model := llm.WithResilience(backend, resilience.NewExecutor(resilience.DefaultPolicy()))

	alpha := usecase.NewAlphaCell(cfg.RetrievalAlpha)
	m.SetRetrievalAlpha(alpha.Alpha())

	retriever := usecase.NewRetriever(catalog, alpha, cfg.RetrievalCandidates, cfg.RetrievalFinalK)
	askUC := usecase.NewAskUseCase(model, model, retriever, sessions, cache, usecase.AskConfig{
		MinScore:     cfg.RetrievalMinScore,
		PromptTopN:   cfg.PromptTopN,
		HistoryLimit: cfg.HistoryTurns,
		PreviewChars: cfg.PreviewChars,
	})
	sessionUC := usecase.NewSessionUseCase(sessions)

	return &App{
		Config:  cfg,
		Catalog: catalog,
		Metrics: m,
		Alpha:   alpha,

		AskUC:     askUC,
		SessionUC: sessionUC,

		closeFn: func() {
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// loadCatalog builds the in-memory snapshot. An empty corpus would gate every
// question, so startup refuses it outright.
func loadCatalog(ctx context.Context, source ports.ChunkSource) (*index.Catalog, []domain.LoadSkip, error) {
	chunks, skips, err := source.LoadChunks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load corpus: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil, domain.ErrEmptyCorpus
	}
	return index.BuildCatalog(chunks), skips, nil
}
