// Package metrics declares the Prometheus collectors for the server.
// Collectors are package-level so the store and gateway can update them
// without threading a registry through every constructor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ControlSessions tracks authenticated control connections.
	ControlSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rcord",
		Subsystem: "gateway",
		Name:      "control_sessions",
		Help:      "Current number of authenticated control sessions",
	})

	// MediaSessions tracks media connections bound to a username.
	MediaSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rcord",
		Subsystem: "gateway",
		Name:      "media_sessions",
		Help:      "Current number of bound media sessions",
	})

	// Requests counts control requests by action.
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rcord",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Total control requests processed, by action",
	}, []string{"action"})

	// Pushes counts server-initiated frames written to control peers.
	Pushes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rcord",
		Subsystem: "gateway",
		Name:      "pushes_total",
		Help:      "Total push notifications written to control peers",
	})

	// MediaFramesRelayed counts frames fanned out to media peers.
	MediaFramesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rcord",
		Subsystem: "media",
		Name:      "frames_relayed_total",
		Help:      "Total media frames relayed to recipients",
	})

	// MediaRelayErrors counts failed writes during media fan-out.
	MediaRelayErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rcord",
		Subsystem: "media",
		Name:      "relay_errors_total",
		Help:      "Total failed media frame writes",
	})

	// PresenceTimeouts counts sessions closed by the heartbeat monitor.
	PresenceTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rcord",
		Subsystem: "gateway",
		Name:      "presence_timeouts_total",
		Help:      "Total sessions closed after missing heartbeats",
	})

	// MessagesStored counts messages appended to persistent history.
	MessagesStored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rcord",
		Subsystem: "store",
		Name:      "messages_stored_total",
		Help:      "Total messages appended to history",
	})

	// InvitesExpired counts invites evicted by TTL sweeps.
	InvitesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rcord",
		Subsystem: "store",
		Name:      "invites_expired_total",
		Help:      "Total invites evicted after their TTL elapsed",
	})

	// StoreWrites counts snapshots written to the database file.
	StoreWrites = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rcord",
		Subsystem: "store",
		Name:      "writes_total",
		Help:      "Total database snapshots written to disk",
	})
)

// Handler returns an HTTP handler exposing the collected metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
