package ops

import (
	"net/http"
	"time"

	"rcord/internal/store"
)

type healthHandler struct {
	store *store.Store
}

func (h *healthHandler) check(w http.ResponseWriter, r *http.Request) {
	storeStatus := "ok"
	status := http.StatusOK

	if err := h.store.Ping(); err != nil {
		storeStatus = "error"
		status = http.StatusServiceUnavailable
	}

	result := "ok"
	if status != http.StatusOK {
		result = "degraded"
	}

	writeJSON(w, status, map[string]any{
		"status": result,
		"checks": map[string]string{
			"store": storeStatus,
		},
	})
}

type infoHandler struct {
	deps Deps
}

type serverInfoResponse struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	ControlAddr    string `json:"control_addr"`
	MediaAddr      string `json:"media_addr"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	Users          int    `json:"users"`
	Rooms          int    `json:"rooms"`
	Chats          int    `json:"chats"`
	OnlineSessions int    `json:"online_sessions"`
	MediaSessions  int    `json:"media_sessions"`
}

// GET /api/v1/server/info
func (h *infoHandler) get(w http.ResponseWriter, r *http.Request) {
	users, rooms, chats := h.deps.Store.Counts()
	control, media := h.deps.Registry.Counts()

	writeJSON(w, http.StatusOK, serverInfoResponse{
		Name:           h.deps.Name,
		Version:        h.deps.Version,
		ControlAddr:    h.deps.ControlAddr,
		MediaAddr:      h.deps.MediaAddr,
		UptimeSeconds:  int64(time.Since(h.deps.StartedAt).Seconds()),
		Users:          users,
		Rooms:          rooms,
		Chats:          chats,
		OnlineSessions: control,
		MediaSessions:  media,
	})
}
