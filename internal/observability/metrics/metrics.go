package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service registry. A private registry keeps the scrape
// surface to exactly what the service registers, without the default
// process collectors of the global one.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	answersTotal    *prometheus.CounterVec
	retrievedChunks prometheus.Histogram
	askDuration     prometheus.Histogram
	retrievalAlpha  prometheus.Gauge

	corpusChunks    prometheus.Gauge
	corpusTables    prometheus.Gauge
	corpusLoadSkips prometheus.Counter
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	m := &Metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "docuchat",
				Subsystem:   "http",
				Name:        "requests_total",
				Help:        "Total HTTP requests processed.",
				ConstLabels: constLabels,
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   "docuchat",
				Subsystem:   "http",
				Name:        "request_duration_seconds",
				Help:        "HTTP request duration in seconds.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{"method", "path"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "docuchat",
				Subsystem:   "http",
				Name:        "in_flight_requests",
				Help:        "Number of in-flight HTTP requests.",
				ConstLabels: constLabels,
			},
		),
		answersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "docuchat",
				Subsystem:   "rag",
				Name:        "answers_total",
				Help:        "Total answered questions by outcome.",
				ConstLabels: constLabels,
			},
			[]string{"outcome"},
		),
		retrievedChunks: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   "docuchat",
				Subsystem:   "rag",
				Name:        "retrieved_chunks",
				Help:        "Distribution of retrieved chunks per question.",
				Buckets:     []float64{0, 1, 2, 3, 5, 8},
				ConstLabels: constLabels,
			},
		),
		askDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   "docuchat",
				Subsystem:   "rag",
				Name:        "ask_duration_seconds",
				Help:        "End-to-end question handling duration in seconds.",
				Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 180, 300},
				ConstLabels: constLabels,
			},
		),
		retrievalAlpha: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "docuchat",
				Subsystem:   "rag",
				Name:        "retrieval_alpha",
				Help:        "Current dense weight of the fusion blend.",
				ConstLabels: constLabels,
			},
		),
		corpusChunks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "docuchat",
				Subsystem:   "corpus",
				Name:        "chunks_loaded",
				Help:        "Chunks loaded into the in-memory indexes at startup.",
				ConstLabels: constLabels,
			},
		),
		corpusTables: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "docuchat",
				Subsystem:   "corpus",
				Name:        "tables_loaded",
				Help:        "Content tables represented in the loaded corpus.",
				ConstLabels: constLabels,
			},
		),
		corpusLoadSkips: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace:   "docuchat",
				Subsystem:   "corpus",
				Name:        "load_skipped_rows_total",
				Help:        "Corpus rows skipped during load for undecodable embeddings.",
				ConstLabels: constLabels,
			},
		),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.answersTotal,
		m.retrievedChunks,
		m.askDuration,
		m.retrievalAlpha,
		m.corpusChunks,
		m.corpusTables,
		m.corpusLoadSkips,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := NewStatusRecorder(w)

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(r.Method, path, strconv.Itoa(recorder.Status())).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordAnswer observes one completed question, whatever the outcome.
func (m *Metrics) RecordAnswer(outcome string, sources int, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.answersTotal.WithLabelValues(outcome).Inc()
	m.retrievedChunks.Observe(float64(sources))
	m.askDuration.Observe(duration.Seconds())
}

func (m *Metrics) SetRetrievalAlpha(alpha float64) {
	m.retrievalAlpha.Set(alpha)
}

func (m *Metrics) RecordCorpusLoad(chunks, tables, skippedRows int) {
	m.corpusChunks.Set(float64(chunks))
	m.corpusTables.Set(float64(tables))
	if skippedRows > 0 {
		m.corpusLoadSkips.Add(float64(skippedRows))
	}
}

// normalizePath folds path parameters so the label set stays bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/sessions/") && strings.HasSuffix(path, "/messages"):
		return "/api/sessions/{id}/messages"
	case strings.HasPrefix(path, "/api/sessions/"):
		return "/api/sessions/{id}"
	case strings.HasPrefix(path, "/api/alpha/"):
		return "/api/alpha/{value}"
	default:
		return path
	}
}
