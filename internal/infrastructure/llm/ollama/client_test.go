package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCompleteSendsPromptAndTrimsResponse(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"  The warranty is two years. \n"}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen-model", "embed-model", 10*time.Second)
	answer, err := client.Complete(context.Background(), "What is the warranty?")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if answer != "The warranty is two years." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if captured["model"] != "gen-model" || captured["prompt"] != "What is the warranty?" {
		t.Fatalf("unexpected request payload %v", captured)
	}
	if captured["stream"] != false {
		t.Fatalf("generation must be non-streaming")
	}
}

func TestEmbedQueryReturnsFirstVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen-model", "embed-model", 10*time.Second)
	vector, err := client.EmbedQuery(context.Background(), "warranty")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vector) != 3 || vector[1] != 0.2 {
		t.Fatalf("unexpected vector %v", vector)
	}
}

func TestEmbedQueryRejectsEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen-model", "embed-model", 10*time.Second)
	if _, err := client.EmbedQuery(context.Background(), "warranty"); err == nil {
		t.Fatalf("expected an error for an empty embedding result")
	}
}

func TestErrorsCarryStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "gen-model", "embed-model", 10*time.Second)
	_, err := client.Complete(context.Background(), "anything")
	if err == nil {
		t.Fatalf("expected error")
	}

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %T", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status code %d", statusErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
