// Package metrics exposes the broker's Prometheus gauges and counters:
// slot occupancy, connected peers, and per-message-type call volume.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "akvcam_broker_active_devices",
			Help: "Number of virtual camera devices with an active broker slot",
		},
	)

	ConnectedPeers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "akvcam_broker_connected_peers",
			Help: "Number of currently connected wire clients",
		},
	)

	BroadcastRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "akvcam_broker_broadcast_requests_total",
			Help: "Total BROADCAST requests handled, by device and result",
		},
		[]string{"device", "result"},
	)

	ListenRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "akvcam_broker_listen_requests_total",
			Help: "Total LISTEN requests handled, by device",
		},
		[]string{"device"},
	)

	ListenWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "akvcam_broker_listen_wait_seconds",
			Help:    "Time a LISTEN request spent waiting for a frame",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	DecodeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "akvcam_broker_decode_failures_total",
			Help: "Total wire messages that failed to decode, by message type",
		},
		[]string{"message"},
	)

	NotifySubscriptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "akvcam_broker_notify_subscriptions_total",
			Help: "Total long-poll notification subscriptions, by kind and result",
		},
		[]string{"kind", "result"},
	)
)

// RecordBroadcast records the outcome of a BROADCAST request.
func RecordBroadcast(device, result string) {
	BroadcastRequestsTotal.WithLabelValues(device, result).Inc()
}

// RecordListen records a LISTEN request and how long it waited.
func RecordListen(device string, waitSeconds float64) {
	ListenRequestsTotal.WithLabelValues(device).Inc()
	ListenWaitDuration.Observe(waitSeconds)
}

// RecordDecodeFailure records a failed decode of the named message type.
func RecordDecodeFailure(message string) {
	DecodeFailuresTotal.WithLabelValues(message).Inc()
}

// RecordNotifySubscription records a long-poll notification subscription.
func RecordNotifySubscription(kind, result string) {
	NotifySubscriptionsTotal.WithLabelValues(kind, result).Inc()
}

// SetActiveDevices sets the gauge counting devices with an active broker
// slot.
func SetActiveDevices(count int) {
	ActiveDevices.Set(float64(count))
}

// SetConnectedPeers sets the connected peer count gauge.
func SetConnectedPeers(count int) {
	ConnectedPeers.Set(float64(count))
}
