package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 验证服务指标
//
// 按结果分类计数验证请求，并记录端到端处理延迟分布。
type Metrics struct {
	registry *prometheus.Registry

	outcomes *prometheus.CounterVec
	latency  prometheus.Histogram
}

// NewMetrics 创建并注册指标集合
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zkvc",
		Subsystem: "server",
		Name:      "verification_outcomes_total",
		Help:      "Verification attempts by outcome (Valid/Invalid/Error).",
	}, []string{"outcome"})

	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "zkvc",
		Subsystem: "server",
		Name:      "verification_duration_seconds",
		Help:      "End to end verification request latency.",
		Buckets:   prometheus.DefBuckets,
	})

	registry.MustRegister(outcomes, latency)

	return &Metrics{
		registry: registry,
		outcomes: outcomes,
		latency:  latency,
	}
}

// ObserveOutcome 记录一次验证结果
func (m *Metrics) ObserveOutcome(outcome string, elapsed time.Duration) {
	m.outcomes.WithLabelValues(outcome).Inc()
	m.latency.Observe(elapsed.Seconds())
}

// Handler 返回/metrics端点处理函数
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
