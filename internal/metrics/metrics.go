// Package metrics exposes the prometheus collectors for the relay core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamConnected is 1 while the VMC link is up.
	UpstreamConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vending_upstream_connected",
		Help: "Whether the upstream VMC connection is currently established.",
	})

	// UpstreamReconnects counts completed reconnect attempts by outcome.
	UpstreamReconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vending_upstream_connect_attempts_total",
		Help: "Total upstream connection attempts by outcome.",
	}, []string{"outcome"}) // outcome: success, failure

	// CommandQueueDepth tracks commands waiting for the upstream to return.
	CommandQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vending_command_queue_depth",
		Help: "Number of commands buffered while the VMC is unreachable.",
	})

	// ConnectedClients tracks registered downstream websocket clients.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vending_ws_clients",
		Help: "Number of currently connected browser clients.",
	})

	// BroadcastFrames counts frames fanned out to the client set.
	BroadcastFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vending_broadcast_frames_total",
		Help: "Total upstream frames broadcast to downstream clients.",
	})

	// DroppedFrames counts per-client sends skipped because the client's
	// buffer was full or the client was shutting down.
	DroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vending_ws_dropped_frames_total",
		Help: "Total frames skipped for individual slow or closing clients.",
	})

	// VendRequests counts vend requests by outcome at the request boundary.
	VendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vending_vend_requests_total",
		Help: "Total vend requests by outcome.",
	}, []string{"outcome"}) // outcome: sent, queued, rejected
)
