package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "giftledger",
		Name:      "transactions_total",
		Help:      "Ledger transactions by kind and resulting status",
	}, []string{"kind", "status"})

	webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "giftledger",
		Name:      "webhook_events_total",
		Help:      "Inbound payment webhook events by result",
	}, []string{"result"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "giftledger",
		Name:      "notifications_total",
		Help:      "Notification deliveries by event and result",
	}, []string{"event", "result"})

	gatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "giftledger",
		Name:      "gateway_request_seconds",
		Help:      "Payment gateway request latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"operation", "result"})
)

// ObserveTransaction 记录一次账本状态写入
func ObserveTransaction(kind, status string) {
	transactionsTotal.WithLabelValues(kind, status).Inc()
}

// ObserveWebhook 记录一次回调处理结果
func ObserveWebhook(result string) {
	webhookEventsTotal.WithLabelValues(result).Inc()
}

// ObserveNotification 记录一次通知投递结果
func ObserveNotification(event, result string) {
	notificationsTotal.WithLabelValues(event, result).Inc()
}

// ObserveGateway 记录网关请求耗时
func ObserveGateway(operation, result string, seconds float64) {
	gatewayLatency.WithLabelValues(operation, result).Observe(seconds)
}

// Handler 返回 /metrics 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
