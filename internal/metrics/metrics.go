// metrics — Prometheus-коллекторы клиента и mock API.
//
// Коллекторы создаются без регистрации; регистрацию выполняет вызывающий
// через переданный prometheus.Registerer (nil — не регистрировать), чтобы
// тесты могли использовать изолированные реестры.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Результаты обновления токена (label result).
const (
	RefreshOK        = "ok"
	RefreshMissing   = "missing"
	RefreshFailed    = "failed"
	// RefreshAbandoned — вызывающий отменил запрос или упёрся в свой дедлайн.
	RefreshAbandoned = "abandoned"
)

// Client — метрики исходящего пайплайна.
type Client struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Refresh  *prometheus.CounterVec
	Retries  prometheus.Counter
	Timeouts prometheus.Counter
}

// NewClient создаёт и (если reg != nil) регистрирует метрики клиента.
func NewClient(reg prometheus.Registerer) *Client {
	m := &Client{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simpa",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Outbound HTTP attempts by method and status code.",
		}, []string{"method", "code"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "simpa",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Outbound HTTP attempt latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simpa",
			Subsystem: "client",
			Name:      "token_refresh_total",
			Help:      "Access token refresh attempts by result.",
		}, []string{"result"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "simpa",
			Subsystem: "client",
			Name:      "auth_retries_total",
			Help:      "Requests resubmitted after a successful token refresh.",
		}),
		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "simpa",
			Subsystem: "client",
			Name:      "timeouts_total",
			Help:      "Requests that got no response within the deadline.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.Duration, m.Refresh, m.Retries, m.Timeouts)
	}

	return m
}

// Server — метрики mock API.
type Server struct {
	Requests *prometheus.CounterVec
}

// NewServer создаёт и (если reg != nil) регистрирует метрики mock API.
func NewServer(reg prometheus.Registerer) *Server {
	m := &Server{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simpa",
			Subsystem: "mockapi",
			Name:      "requests_total",
			Help:      "Handled requests by route pattern and status code.",
		}, []string{"route", "code"}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests)
	}

	return m
}
