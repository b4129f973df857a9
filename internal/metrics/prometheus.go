package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledgebot_requests_total",
			Help: "Total simulated requests dispatched",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "knowledgebot_request_duration_seconds",
			Help:    "Simulated request duration including artificial latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method"},
	)

	DocumentsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "knowledgebot_documents_total",
			Help: "Documents currently in the knowledge base",
		},
	)

	UsersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "knowledgebot_users_total",
			Help: "Registered user accounts",
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledgebot_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	LLMFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "knowledgebot_llm_failures_total",
			Help: "AI completions that fell back to the apology message",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DocumentsTotal)
	prometheus.MustRegister(UsersTotal)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(LLMFailures)
}

// Handler exposes the prometheus registry. The exporter is the one real
// network listener in the process and is opt-in via config.
func Handler() http.Handler {
	return promhttp.Handler()
}
