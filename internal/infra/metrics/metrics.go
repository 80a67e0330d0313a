package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "academy"

// Checkout は決済まわりのカウンタ。nil のままでも呼べる
type Checkout struct {
	Payments      *prometheus.CounterVec
	GatewayErrors *prometheus.CounterVec
	Settlements   *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

func NewCheckout(reg prometheus.Registerer) *Checkout {
	m := &Checkout{
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "payments_total",
			Help:      "Payment attempts by type and resulting status.",
		}, []string{"type", "status"}),
		GatewayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "gateway_errors_total",
			Help:      "Gateway errors by category.",
		}, []string{"category"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "settlements_total",
			Help:      "Settlement runs by result.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "notifications_total",
			Help:      "Notifications by event and result.",
		}, []string{"event", "result"}),
	}
	reg.MustRegister(m.Payments, m.GatewayErrors, m.Settlements, m.Notifications)
	return m
}

func (m *Checkout) PaymentRecorded(paymentType string, status string) {
	if m == nil {
		return
	}
	m.Payments.WithLabelValues(paymentType, status).Inc()
}

func (m *Checkout) GatewayError(category string) {
	if m == nil {
		return
	}
	m.GatewayErrors.WithLabelValues(category).Inc()
}

func (m *Checkout) Settled(result string) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(result).Inc()
}

func (m *Checkout) Notified(event string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.Notifications.WithLabelValues(event, result).Inc()
}

// HTTP のリクエスト数とレイテンシ
type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
