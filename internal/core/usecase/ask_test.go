package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dkarmanov/docuchat/internal/core/domain"
	"github.com/dkarmanov/docuchat/internal/index"
)

type askEmbedderFake struct {
	vector []float32
	err    error
}

func (f *askEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type askGeneratorFake struct {
	calls int
	reply string
	err   error
}

func (f *askGeneratorFake) Complete(context.Context, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type exchange struct {
	sessionID        int64
	question, answer string
}

type askSessionStoreFake struct {
	exchanges []exchange
	history   []domain.Message
}

func (f *askSessionStoreFake) CreateSession(context.Context, string) (int64, error) { return 1, nil }
func (f *askSessionStoreFake) ListSessions(context.Context) ([]domain.SessionInfo, error) {
	return nil, nil
}
func (f *askSessionStoreFake) ListMessages(context.Context, int64) ([]domain.Message, error) {
	return nil, nil
}
func (f *askSessionStoreFake) RecentMessages(context.Context, int64, int) ([]domain.Message, error) {
	return f.history, nil
}
func (f *askSessionStoreFake) DeleteSession(context.Context, int64) error { return nil }
func (f *askSessionStoreFake) AppendExchange(_ context.Context, sessionID int64, question, answer string) error {
	f.exchanges = append(f.exchanges, exchange{sessionID: sessionID, question: question, answer: answer})
	return nil
}

type askCacheFake struct {
	entries map[string]string
}

func newAskCacheFake() *askCacheFake { return &askCacheFake{entries: map[string]string{}} }

func (f *askCacheFake) Lookup(_ context.Context, question string) (string, bool, error) {
	answer, ok := f.entries[question]
	return answer, ok, nil
}
func (f *askCacheFake) Save(_ context.Context, question, answer string) error {
	f.entries[question] = answer
	return nil
}

func newAskUseCaseForTest(catalog *index.Catalog, alpha float64, gen *askGeneratorFake) (*AskUseCase, *askSessionStoreFake, *askCacheFake) {
	sessions := &askSessionStoreFake{}
	cache := newAskCacheFake()
	retriever := NewRetriever(catalog, NewAlphaCell(alpha), 100, 8)
	uc := NewAskUseCase(&askEmbedderFake{vector: []float32{1, 0}}, gen, retriever, sessions, cache, AskConfig{})
	return uc, sessions, cache
}

func TestAskEmptyCorpusAlwaysGated(t *testing.T) {
	gen := &askGeneratorFake{reply: "should never run"}
	uc, sessions, cache := newAskUseCaseForTest(index.BuildCatalog(nil), 0.6, gen)
	uc.embedder = &askEmbedderFake{vector: make([]float32, 384)}

	for _, question := range []string{"anything", "something else entirely"} {
		answer, err := uc.Ask(context.Background(), 7, question, false)
		if err != nil {
			t.Fatalf("Ask() error = %v", err)
		}
		if answer.Text != domain.SentinelAnswer {
			t.Fatalf("expected sentinel for empty corpus, got %q", answer.Text)
		}
		if len(answer.Sources) != 0 {
			t.Fatalf("gated refusal must carry no sources, got %d", len(answer.Sources))
		}
		if answer.Outcome != domain.OutcomeGated {
			t.Fatalf("expected gated outcome, got %s", answer.Outcome)
		}
	}
	if gen.calls != 0 {
		t.Fatalf("generation must be skipped when gated, got %d calls", gen.calls)
	}
	if len(sessions.exchanges) != 2 {
		t.Fatalf("every refusal must be logged, got %d exchanges", len(sessions.exchanges))
	}
	if cache.entries["anything"] != domain.SentinelAnswer {
		t.Fatalf("sentinel must be cached like any answer")
	}
}

func TestAskLowConfidenceGated(t *testing.T) {
	// Weak semantic signal only: alpha 0.05 keeps the top fused score at
	// 0.05, below the 0.12 threshold.
	gen := &askGeneratorFake{reply: "unused"}
	uc, sessions, _ := newAskUseCaseForTest(buildTestCatalog(), 0.05, gen)

	answer, err := uc.Ask(context.Background(), 3, "quantum entanglement basics", false)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text != domain.SentinelAnswer {
		t.Fatalf("expected sentinel below threshold, got %q", answer.Text)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no generation below threshold")
	}
	if len(sessions.exchanges) != 1 {
		t.Fatalf("expected one paired exchange, got %d", len(sessions.exchanges))
	}
	if sessions.exchanges[0].question != "quantum entanglement basics" || sessions.exchanges[0].answer != domain.SentinelAnswer {
		t.Fatalf("exchange must pair question with sentinel, got %+v", sessions.exchanges[0])
	}
}

func TestAskCacheRoundTrip(t *testing.T) {
	gen := &askGeneratorFake{reply: "Coverage is two years [Source 1]."}
	uc, sessions, _ := newAskUseCaseForTest(buildTestCatalog(), 0.6, gen)

	first, err := uc.Ask(context.Background(), 1, "warranty coverage details", true)
	if err != nil {
		t.Fatalf("first Ask() error = %v", err)
	}
	if first.FromCache {
		t.Fatalf("first call must miss the cache")
	}
	if gen.calls != 1 {
		t.Fatalf("expected one generation, got %d", gen.calls)
	}

	second, err := uc.Ask(context.Background(), 1, "warranty coverage details", true)
	if err != nil {
		t.Fatalf("second Ask() error = %v", err)
	}
	if !second.FromCache {
		t.Fatalf("identical question must hit the cache")
	}
	if second.Text != first.Text {
		t.Fatalf("cached answer must match exactly: %q vs %q", second.Text, first.Text)
	}
	if gen.calls != 1 {
		t.Fatalf("cache hit must skip generation, got %d calls", gen.calls)
	}
	if len(sessions.exchanges) != 2 {
		t.Fatalf("cache hits still log the exchange, got %d", len(sessions.exchanges))
	}
}

func TestAskGenerationFailureBecomesAnswer(t *testing.T) {
	gen := &askGeneratorFake{err: errors.New("ollama timed out")}
	uc, sessions, cache := newAskUseCaseForTest(buildTestCatalog(), 0.6, gen)

	answer, err := uc.Ask(context.Background(), 2, "warranty coverage details", false)
	if err != nil {
		t.Fatalf("generation failure must not fail the request, got %v", err)
	}
	if !strings.HasPrefix(answer.Text, "Error generating answer:") {
		t.Fatalf("expected error-description answer, got %q", answer.Text)
	}
	if answer.Outcome != domain.OutcomeGenerationFailure {
		t.Fatalf("expected generation_failure outcome, got %s", answer.Outcome)
	}
	if len(sessions.exchanges) != 1 {
		t.Fatalf("failed generations are persisted like answers")
	}
	if cache.entries["warranty coverage details"] != answer.Text {
		t.Fatalf("error answers are cached too")
	}
}

func TestAskAnswerCarriesTruncatedSources(t *testing.T) {
	long := strings.Repeat("warranty ", 60) // > 300 chars
	chunks := []domain.Chunk{
		{SourceID: "manual", ChunkID: 1, Text: long, Embedding: []float32{1, 0}},
		{SourceID: "manual", ChunkID: 2, Text: "short", Embedding: []float32{0, 1}},
	}
	gen := &askGeneratorFake{reply: "Answer [Source 1]."}
	uc, _, _ := newAskUseCaseForTest(index.BuildCatalog(chunks), 0.6, gen)

	answer, err := uc.Ask(context.Background(), 1, "warranty", false)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if len(answer.Sources) == 0 {
		t.Fatalf("expected surfaced sources")
	}
	top := answer.Sources[0]
	if len(top.Text) != 303 || !strings.HasSuffix(top.Text, "...") {
		t.Fatalf("expected 300-char preview with ellipsis, got %d chars", len(top.Text))
	}
	if top.Score <= 0 || top.DenseScore < 0 || top.LexicalScore < 0 {
		t.Fatalf("payload must carry fused and component scores, got %+v", top)
	}
}

func TestAskUncitedAnswerGetsAttribution(t *testing.T) {
	gen := &askGeneratorFake{reply: "Coverage lasts two years."}
	uc, _, _ := newAskUseCaseForTest(buildTestCatalog(), 0.6, gen)

	answer, err := uc.Ask(context.Background(), 1, "warranty coverage details", false)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !strings.Contains(answer.Text, "*Based on information from: manual, Page 3*") {
		t.Fatalf("expected synthetic attribution, got %q", answer.Text)
	}
}

func TestAskEmbedErrorPropagates(t *testing.T) {
	gen := &askGeneratorFake{reply: "unused"}
	uc, _, _ := newAskUseCaseForTest(buildTestCatalog(), 0.6, gen)
	uc.embedder = &askEmbedderFake{err: errors.New("embed fail")}

	if _, err := uc.Ask(context.Background(), 1, "q", false); err == nil {
		t.Fatalf("expected embed error to propagate")
	}
}
