package index

import "testing"

func TestLexicalScoresZeroWithoutTermOverlap(t *testing.T) {
	lx := BuildLexical([]string{"alpha beta gamma", "delta epsilon"})

	scores := lx.Scores(Tokenize("omega"))
	for i, s := range scores {
		if s != 0 {
			t.Fatalf("expected zero score for doc %d without query terms, got %f", i, s)
		}
	}
}

func TestLexicalScoresRewardTermFrequency(t *testing.T) {
	lx := BuildLexical([]string{
		"warranty warranty coverage",
		"warranty terms",
		"shipping policy",
	})

	scores := lx.Scores(Tokenize("warranty"))
	if scores[0] <= scores[1] {
		t.Fatalf("expected higher score for repeated term, got %f vs %f", scores[0], scores[1])
	}
	if scores[2] != 0 {
		t.Fatalf("expected zero for non-matching doc, got %f", scores[2])
	}
}

func TestLexicalScoresCaseSensitive(t *testing.T) {
	lx := BuildLexical([]string{"Warranty info"})

	if scores := lx.Scores(Tokenize("warranty")); scores[0] != 0 {
		t.Fatalf("tokenization is case-sensitive, expected 0, got %f", scores[0])
	}
	if scores := lx.Scores(Tokenize("Warranty")); scores[0] <= 0 {
		t.Fatalf("expected positive score for exact-case match, got %f", scores[0])
	}
}

func TestLexicalEmptyQueryAndCorpus(t *testing.T) {
	lx := BuildLexical([]string{"a b", "c"})
	scores := lx.Scores(nil)
	if len(scores) != 2 {
		t.Fatalf("expected one score per document, got %d", len(scores))
	}
	for _, s := range scores {
		if s != 0 {
			t.Fatalf("empty query must score zero, got %f", s)
		}
	}

	empty := BuildLexical(nil)
	if got := empty.Scores(Tokenize("anything")); len(got) != 0 {
		t.Fatalf("empty corpus must produce no scores, got %d", len(got))
	}
}
