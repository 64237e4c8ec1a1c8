package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dkarmanov/docuchat/internal/core/domain"
	"github.com/dkarmanov/docuchat/internal/core/ports"
	"github.com/dkarmanov/docuchat/internal/index"
	"github.com/dkarmanov/docuchat/internal/observability/metrics"
)

const autoSessionName = "Auto-created session"

type Router struct {
	chat     ports.ChatService
	sessions ports.SessionService
	tuner    ports.RetrievalTuner
	catalog  *index.Catalog
	metrics  *metrics.Metrics
	limits   TrafficLimits
}

func NewRouter(
	chat ports.ChatService,
	sessions ports.SessionService,
	tuner ports.RetrievalTuner,
	catalog *index.Catalog,
	m *metrics.Metrics,
	limits TrafficLimits,
) *Router {
	return &Router{
		chat:     chat,
		sessions: sessions,
		tuner:    tuner,
		catalog:  catalog,
		metrics:  m,
		limits:   limits,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/api/sessions", rt.sessionsCollection)
	mux.HandleFunc("/api/sessions/", rt.sessionByID)
	mux.HandleFunc("/api/ask", rt.ask)
	mux.HandleFunc("/api/alpha/", rt.setAlpha)
	mux.HandleFunc("/api/stats", rt.stats)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.limits.MaxConcurrent, rt.limits.AcquireWait)
	handler = rateLimitMiddleware(handler, rt.limits.RateLimitRPS, rt.limits.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"chunks_loaded": rt.catalog.Len(),
	})
}

func (rt *Router) sessionsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
				return
			}
		}
		id, err := rt.sessions.CreateSession(r.Context(), req.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"session_id": id})
	case http.MethodGet:
		sessions, err := rt.sessions.ListSessions(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if sessions == nil {
			sessions = []domain.SessionInfo{}
		}
		writeJSON(w, http.StatusOK, sessions)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) sessionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	idPart, tail, _ := strings.Cut(rest, "/")
	sessionID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return
	}

	switch {
	case r.Method == http.MethodGet && tail == "messages":
		messages, err := rt.sessions.ListMessages(r.Context(), sessionID)
		if err != nil {
			writeError(w, err)
			return
		}
		if messages == nil {
			messages = []domain.Message{}
		}
		writeJSON(w, http.StatusOK, messages)
	case r.Method == http.MethodDelete && tail == "":
		if err := rt.sessions.DeleteSession(r.Context(), sessionID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question  string `json:"question"`
		SessionID int64  `json:"session_id"`
		UseCache  *bool  `json:"use_cache"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}
	useCache := true
	if req.UseCache != nil {
		useCache = *req.UseCache
	}

	sessionID := req.SessionID
	if sessionID == 0 {
		id, err := rt.sessions.CreateSession(r.Context(), autoSessionName)
		if err != nil {
			writeError(w, err)
			return
		}
		sessionID = id
	}

	start := time.Now()
	answer, err := rt.chat.Ask(r.Context(), sessionID, req.Question, useCache)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAnswer(string(answer.Outcome), len(answer.Sources), time.Since(start))
	}
	if answer.Sources == nil {
		answer.Sources = []domain.SourceRef{}
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) setAlpha(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/alpha/")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid alpha value"})
		return
	}
	if err := rt.tuner.SetAlpha(value); err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.SetRetrievalAlpha(value)
	}
	writeJSON(w, http.StatusOK, map[string]any{"alpha": value})
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	tables := rt.catalog.Tables()
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_chunks": rt.catalog.Len(),
		"alpha":        rt.tuner.Alpha(),
		"tables":       tables,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
