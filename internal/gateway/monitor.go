package gateway

import (
	"context"
	"log/slog"
	"time"

	"rcord/internal/metrics"
	"rcord/internal/models"
)

// Monitor closes sessions whose heartbeats stopped. A user counts as
// timed out when online and last seen longer than the timeout ago.
type Monitor struct {
	registry *Registry
	interval time.Duration
	timeout  time.Duration
}

func NewMonitor(registry *Registry, interval, timeout time.Duration) *Monitor {
	return &Monitor{registry: registry, interval: interval, timeout: timeout}
}

func (m *Monitor) Start(ctx context.Context) {
	slog.Info("starting presence monitor", "component", "monitor",
		"interval", m.interval, "timeout", m.timeout)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping presence monitor", "component", "monitor")
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Monitor) sweep() {
	now := time.Now().UTC()
	for user, st := range m.registry.Statuses() {
		if !st.Online || st.LastSeen == "" {
			continue
		}
		seen, err := models.ParseStamp(st.LastSeen)
		if err != nil {
			continue
		}
		if now.Sub(seen) <= m.timeout {
			continue
		}
		slog.Info("session timed out", "component", "monitor", "user", user, "last_seen", st.LastSeen)
		metrics.PresenceTimeouts.Inc()
		m.registry.CloseControl(user)
		if err := m.registry.SetOffline(user); err != nil {
			slog.Error("record offline", "component", "monitor", "user", user, "error", err)
		}
	}
}
