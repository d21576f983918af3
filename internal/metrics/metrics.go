// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証フローの結果ラベル
const (
	OutcomeRedirected = "redirected"
	OutcomeSuccess    = "success"
	OutcomeFailed     = "failed"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証サービス、リンク照合、ストアから利用する。
type MetricsCollector interface {
	RecordAuth(provider, outcome string)
	RecordReconcile(result string)
	RecordStoreError(op string)
	RecordProviderLatency(provider string, duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	auth            *prometheus.CounterVec
	reconcile       *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		auth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accountlink_auth_total",
			Help: "プロバイダー別・結果別の認証フロー数",
		}, []string{"provider", "outcome"}),
		reconcile: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accountlink_reconcile_total",
			Help: "リンク照合の結果別件数",
		}, []string{"result"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accountlink_store_errors_total",
			Help: "リンクストアの読み書き失敗数",
		}, []string{"op"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accountlink_provider_latency_seconds",
			Help:    "外部IdP呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accountlink_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.auth,
		c.reconcile,
		c.storeErrors,
		c.providerLatency,
		c.httpStatus,
	)

	return c
}

// RecordAuth は認証フローの段階を記録する。
func (c *Collector) RecordAuth(provider, outcome string) {
	c.auth.WithLabelValues(provider, outcome).Inc()
}

// RecordReconcile はリンク照合の結果（skipped, created, updated）を記録する。
func (c *Collector) RecordReconcile(result string) {
	c.reconcile.WithLabelValues(result).Inc()
}

// RecordStoreError はストア操作（load, save）の失敗を記録する。
func (c *Collector) RecordStoreError(op string) {
	c.storeErrors.WithLabelValues(op).Inc()
}

// RecordProviderLatency は外部IdP呼び出しのレイテンシを記録する。
func (c *Collector) RecordProviderLatency(provider string, duration time.Duration) {
	c.providerLatency.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
