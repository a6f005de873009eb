package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitekeeper"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	mutations       *prom.CounterVec
	records         *prom.GaugeVec
	syncDuration    *prom.HistogramVec
	syncResults     *prom.CounterVec
	anchorsSkipped  *prom.CounterVec
	publishDuration prom.Histogram
	publishOutcome  *prom.CounterVec
	httpDuration    *prom.HistogramVec
	httpRequests    *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		mutations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Content mutations by collection, operation and result",
		}, []string{"kind", "op", "result"}),
		records: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Number of records per collection after the last write",
		}, []string{"kind"}),
		syncDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of document synchronization per collection",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		syncResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sync_results_total",
			Help:      "Document synchronizations by collection and result",
		}, []string{"kind", "result"}),
		anchorsSkipped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "anchors_skipped_total",
			Help:      "Anchors skipped during synchronization by reason",
		}, []string{"anchor", "reason"}),
		publishDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Duration of publish attempts",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		publishOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "publish_outcomes_total",
			Help:      "Publish attempts by outcome and failure kind",
		}, []string{"outcome", "failure"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route"}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(pr.mutations, pr.records, pr.syncDuration, pr.syncResults, pr.anchorsSkipped,
		pr.publishDuration, pr.publishOutcome, pr.httpDuration, pr.httpRequests)
	return pr
}

func (p *PrometheusRecorder) IncMutation(kind, op string, result ResultLabel) {
	if p == nil {
		return
	}
	p.mutations.WithLabelValues(kind, op, string(result)).Inc()
}

func (p *PrometheusRecorder) SetRecordCount(kind string, n int) {
	if p == nil {
		return
	}
	p.records.WithLabelValues(kind).Set(float64(n))
}

func (p *PrometheusRecorder) ObserveSyncDuration(kind string, d time.Duration) {
	if p == nil {
		return
	}
	p.syncDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSyncResult(kind string, result ResultLabel) {
	if p == nil {
		return
	}
	p.syncResults.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) IncAnchorSkipped(anchor, reason string) {
	if p == nil {
		return
	}
	p.anchorsSkipped.WithLabelValues(anchor, reason).Inc()
}

func (p *PrometheusRecorder) ObservePublishDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.publishDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPublishOutcome(outcome, failure string) {
	if p == nil {
		return
	}
	p.publishOutcome.WithLabelValues(outcome, failure).Inc()
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
