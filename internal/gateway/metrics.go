package gateway

import (
	"sync/atomic"
)

// Metrics tracks gateway-level counters using atomic operations for
// lock-free concurrency. Domain metrics live in Prometheus; these feed
// the /status endpoint.
type Metrics struct {
	requests    atomic.Int64
	delivered   atomic.Int64
	failed      atomic.Int64
	skipped     atomic.Int64
	rateLimited atomic.Int64
}

// RecordRequest records an inbound HTTP request.
func (m *Metrics) RecordRequest() { m.requests.Add(1) }

// RecordDelivery records the outcome of a delivery started by the gateway.
func (m *Metrics) RecordDelivery(err error) {
	if err != nil {
		m.failed.Add(1)
		return
	}
	m.delivered.Add(1)
}

// RecordSkipped records a completed download that was not delivered
// because automatic upload is off.
func (m *Metrics) RecordSkipped() { m.skipped.Add(1) }

// RecordRateLimited records a rejected request.
func (m *Metrics) RecordRateLimited() { m.rateLimited.Add(1) }

// Snapshot returns a point-in-time view of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Requests:    m.requests.Load(),
		Delivered:   m.delivered.Load(),
		Failed:      m.failed.Load(),
		Skipped:     m.skipped.Load(),
		RateLimited: m.rateLimited.Load(),
	}
}

// MetricsSnapshot is a serializable point-in-time metrics view.
type MetricsSnapshot struct {
	Requests    int64 `json:"requests"`
	Delivered   int64 `json:"delivered"`
	Failed      int64 `json:"failed"`
	Skipped     int64 `json:"skipped"`
	RateLimited int64 `json:"rate_limited"`
}
