package metrics

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "softbot_chat_requests_total",
			Help: "Chat messages processed, labeled by outcome",
		},
		[]string{"outcome"},
	)

	ChatDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "softbot_chat_duration_seconds",
			Help:    "End to end chat handling latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	ConsultationsScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "softbot_consultations_scheduled_total",
			Help: "Consultation requests accepted into the ledger",
		},
	)

	ConsultationConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "softbot_consultation_conflicts_total",
			Help: "Consultation requests rejected because the slot was taken",
		},
	)

	KnowledgeChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "softbot_knowledge_chunks",
			Help: "Chunks currently held by the document store",
		},
	)

	EmbeddingCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "softbot_embedding_cache_hits_total",
			Help: "Embedding lookups served from cache",
		},
	)

	EmbeddingCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "softbot_embedding_cache_misses_total",
			Help: "Embedding lookups that required the model",
		},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "softbot_llm_tokens_total",
			Help: "Tokens consumed by completions, labeled by kind",
		},
		[]string{"kind"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "softbot_http_requests_total",
			Help: "HTTP requests, labeled by method, path and status",
		},
		[]string{"method", "path", "status"},
	)
)

func Init() {
	prometheus.MustRegister(
		ChatRequestsTotal,
		ChatDuration,
		ConsultationsScheduled,
		ConsultationConflicts,
		KnowledgeChunks,
		EmbeddingCacheHits,
		EmbeddingCacheMisses,
		LLMTokensTotal,
		HTTPRequestsTotal,
	)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
