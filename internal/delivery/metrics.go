package delivery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the delivery service.
// A nil *Metrics records nothing.
type Metrics struct {
	deliveries     *prometheus.CounterVec
	deliveredBytes prometheus.Counter
	duration       *prometheus.HistogramVec
	probes         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sealdrop",
			Name:      "deliveries_total",
			Help:      "Delivery attempts by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		deliveredBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sealdrop",
			Name:      "delivered_bytes_total",
			Help:      "Bytes of files accepted by the Bot API.",
		}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sealdrop",
			Name:      "delivery_duration_seconds",
			Help:      "Duration of delivery attempts.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"endpoint"}),
		probes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sealdrop",
			Name:      "connectivity_probes_total",
			Help:      "Connectivity probes by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) observeDelivery(endpoint, outcome string, size int64, d time.Duration) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "none"
	}
	m.deliveries.WithLabelValues(endpoint, outcome).Inc()
	m.duration.WithLabelValues(endpoint).Observe(d.Seconds())
	if outcome == outcomeOK {
		m.deliveredBytes.Add(float64(size))
	}
}

func (m *Metrics) observeProbe(outcome string) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(outcome).Inc()
}

// outcomeOK is the outcome label of a successful operation; failures use
// the Kind name.
const outcomeOK = "ok"

func outcomeLabel(err error) string {
	if err == nil {
		return outcomeOK
	}
	return KindOf(err).String()
}
