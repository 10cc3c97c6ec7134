// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP与研究任务的运行指标
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contentstudio_http_requests_total",
		Help: "Total HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "contentstudio_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	researchTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contentstudio_research_tasks_total",
		Help: "Research task outcomes by status",
	}, []string{"status"})

	llmRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contentstudio_llm_requests_total",
		Help: "LLM completions by provider and outcome",
	}, []string{"provider", "outcome"})

	sourceFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contentstudio_source_fetches_total",
		Help: "Web source fetches by outcome",
	}, []string{"outcome"})
)

// CountResearchTask 记录研究任务的终态
func CountResearchTask(status string) {
	researchTasksTotal.WithLabelValues(status).Inc()
}

// CountLLMRequest 记录LLM请求结果
func CountLLMRequest(provider, outcome string) {
	llmRequestsTotal.WithLabelValues(provider, outcome).Inc()
}

// CountSourceFetch 记录网页抓取结果
func CountSourceFetch(outcome string) {
	sourceFetchesTotal.WithLabelValues(outcome).Inc()
}
