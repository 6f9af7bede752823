// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// Discoverサービスと操作イベントのPublisherから利用する。
type MetricsCollector interface {
	RecordDiscoverRequest(surface string)
	RecordCacheResult(hit bool)
	RecordSafetyOutcome(failOpen bool)
	RecordPipelineFailure(stage string)
	RecordItemsServed(surface string, count int)
	RecordDiscoverLatency(duration time.Duration)
	RecordInteraction(result string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requests         *prometheus.CounterVec
	cache            *prometheus.CounterVec
	safety           *prometheus.CounterVec
	pipelineFailures *prometheus.CounterVec
	itemsServed      *prometheus.CounterVec
	latency          prometheus.Histogram
	interactions     *prometheus.CounterVec
	httpResponses    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealtrack_discover_requests_total",
			Help: "Discoverフィード取得リクエストの合計数",
		}, []string{"surface"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealtrack_discover_cache_total",
			Help: "フィードキャッシュのヒット・ミス数",
		}, []string{"result"}),
		safety: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealtrack_discover_safety_filter_total",
			Help: "安全性フィルタの結果（filtered: 正常, fail_open: 障害により未フィルタ）",
		}, []string{"outcome"}),
		pipelineFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealtrack_discover_pipeline_failures_total",
			Help: "空フィードに縮退したパイプライン障害の数",
		}, []string{"stage"}),
		itemsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealtrack_discover_items_served_total",
			Help: "返却したDiscoverアイテムの合計数",
		}, []string{"surface"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mealtrack_discover_latency_seconds",
			Help:    "Discoverフィード生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealtrack_discover_interactions_total",
			Help: "操作イベントの送信結果別の数",
		}, []string{"result"}),
		httpResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealtrack_http_responses_total",
			Help: "HTTPステータスコード・メソッド別のレスポンス数",
		}, []string{"code", "method"}),
	}

	reg.MustRegister(
		c.requests,
		c.cache,
		c.safety,
		c.pipelineFailures,
		c.itemsServed,
		c.latency,
		c.interactions,
		c.httpResponses,
	)

	return c
}

// RecordDiscoverRequest はフィード取得リクエストを記録する。
func (c *Collector) RecordDiscoverRequest(surface string) {
	c.requests.WithLabelValues(surface).Inc()
}

// RecordCacheResult はキャッシュのヒット・ミスを記録する。
func (c *Collector) RecordCacheResult(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cache.WithLabelValues(result).Inc()
}

// RecordSafetyOutcome は安全性フィルタの結果を記録する。
func (c *Collector) RecordSafetyOutcome(failOpen bool) {
	outcome := "filtered"
	if failOpen {
		outcome = "fail_open"
	}
	c.safety.WithLabelValues(outcome).Inc()
}

// RecordPipelineFailure はステージ別のパイプライン障害を記録する。
func (c *Collector) RecordPipelineFailure(stage string) {
	c.pipelineFailures.WithLabelValues(stage).Inc()
}

// RecordItemsServed は返却したアイテム数を記録する。
func (c *Collector) RecordItemsServed(surface string, count int) {
	c.itemsServed.WithLabelValues(surface).Add(float64(count))
}

// RecordDiscoverLatency はフィード生成のレイテンシを記録する。
func (c *Collector) RecordDiscoverLatency(duration time.Duration) {
	c.latency.Observe(duration.Seconds())
}

// RecordInteraction は操作イベントの送信結果を記録する。
func (c *Collector) RecordInteraction(result string) {
	c.interactions.WithLabelValues(result).Inc()
}

// InstrumentHandler はレスポンスのステータスコードを記録するミドルウェアを返す。
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(c.httpResponses, next)
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
