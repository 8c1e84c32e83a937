package gateway

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"rcord/internal/metrics"
	"rcord/internal/models"
	"rcord/internal/protocol"
	"rcord/internal/store"
)

type session struct {
	id   string
	peer *peer
}

// Registry tracks which users hold live control and media connections
// and mirrors presence into the store. Presence reads go through the
// in-memory map; every change is persisted.
type Registry struct {
	store *store.Store

	mu       sync.RWMutex
	sessions map[string]*session
	media    map[string]*peer
	status   map[string]models.Status
}

// NewRegistry seeds the presence map from the store so users keep
// their last seen timestamps across restarts.
func NewRegistry(st *store.Store) *Registry {
	return &Registry{
		store:    st,
		sessions: make(map[string]*session),
		media:    make(map[string]*peer),
		status:   st.Statuses(),
	}
}

// Login binds username to a control peer. It reports false when the
// user already holds a session; the check and bind are atomic.
func (r *Registry) Login(username string, p *peer) (string, bool, error) {
	r.mu.Lock()
	if _, ok := r.sessions[username]; ok {
		r.mu.Unlock()
		return "", false, nil
	}
	id := uuid.NewString()
	now := models.NowStamp()
	r.sessions[username] = &session{id: id, peer: p}
	r.status[username] = models.Status{Online: true, LastSeen: now}
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.ControlSessions.Set(float64(n))
	return id, true, r.store.SetStatus(username, true, now)
}

// SetOffline drops username's session, closes any bound media peer,
// and records the user offline. Safe to call for absent users.
func (r *Registry) SetOffline(username string) error {
	r.mu.Lock()
	delete(r.sessions, username)
	if mp, ok := r.media[username]; ok {
		delete(r.media, username)
		mp.Close()
	}
	now := models.NowStamp()
	r.status[username] = models.Status{Online: false, LastSeen: now}
	nSessions, nMedia := len(r.sessions), len(r.media)
	r.mu.Unlock()
	metrics.ControlSessions.Set(float64(nSessions))
	metrics.MediaSessions.Set(float64(nMedia))
	return r.store.SetStatus(username, false, now)
}

// Touch refreshes username's heartbeat.
func (r *Registry) Touch(username string) error {
	now := models.NowStamp()
	r.mu.Lock()
	r.status[username] = models.Status{Online: true, LastSeen: now}
	r.mu.Unlock()
	return r.store.SetStatus(username, true, now)
}

// IsOnline reports whether username holds a control session.
func (r *Registry) IsOnline(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[username]
	return ok
}

// SendToUser writes a push frame to username's control peer. Offline
// users and write failures are skipped without surfacing an error.
func (r *Registry) SendToUser(username string, v any) {
	r.mu.RLock()
	sess, ok := r.sessions[username]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if err := sess.peer.WriteJSON(v); err != nil {
		slog.Warn("push failed", "component", "registry", "user", username, "error", err)
		return
	}
	metrics.Pushes.Inc()
}

// CloseControl closes username's control connection, if any. The
// connection's own teardown records the user offline.
func (r *Registry) CloseControl(username string) {
	r.mu.RLock()
	sess, ok := r.sessions[username]
	r.mu.RUnlock()
	if ok {
		sess.peer.Close()
	}
}

// BindMedia associates username with a media peer, replacing any
// previous binding.
func (r *Registry) BindMedia(username string, p *peer) {
	r.mu.Lock()
	r.media[username] = p
	n := len(r.media)
	r.mu.Unlock()
	metrics.MediaSessions.Set(float64(n))
}

// ReleaseMedia drops username's media binding, but only if it still
// points at p. A binding replaced by a newer connection stays.
func (r *Registry) ReleaseMedia(username string, p *peer) {
	r.mu.Lock()
	if cur, ok := r.media[username]; ok && cur == p {
		delete(r.media, username)
	}
	n := len(r.media)
	r.mu.Unlock()
	metrics.MediaSessions.Set(float64(n))
}

// BroadcastMedia fans a frame out to every recipient's media peer,
// excluding the sender. Writes run concurrently; one slow or dead
// recipient does not affect the others. Returns after all writes
// settle so frames from one sender stay ordered.
func (r *Registry) BroadcastMedia(recipients []string, sender string, frame *protocol.MediaFrame) {
	r.mu.RLock()
	peers := make(map[string]*peer, len(recipients))
	for _, user := range recipients {
		if user == sender {
			continue
		}
		if p, ok := r.media[user]; ok {
			peers[user] = p
		}
	}
	r.mu.RUnlock()
	if len(peers) == 0 {
		return
	}
	var wg sync.WaitGroup
	for user, p := range peers {
		wg.Add(1)
		go func(user string, p *peer) {
			defer wg.Done()
			if err := p.WriteJSON(frame); err != nil {
				metrics.MediaRelayErrors.Inc()
				slog.Warn("media relay failed", "component", "registry",
					"user", user, "action", frame.Action, "error", err)
				return
			}
			metrics.MediaFramesRelayed.Inc()
		}(user, p)
	}
	wg.Wait()
}

// UsersWithStatus returns every registered user with presence, sorted
// by username. Users without a presence record report offline with a
// null last seen.
func (r *Registry) UsersWithStatus() []models.UserStatus {
	names := r.store.Usernames()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.UserStatus, 0, len(names))
	for _, name := range names {
		entry := models.UserStatus{Username: name}
		if st, ok := r.status[name]; ok {
			entry.Online = st.Online
			if st.LastSeen != "" {
				seen := st.LastSeen
				entry.LastSeen = &seen
			}
		}
		out = append(out, entry)
	}
	return out
}

// Statuses returns a snapshot of the presence map.
func (r *Registry) Statuses() map[string]models.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]models.Status, len(r.status))
	for name, st := range r.status {
		out[name] = st
	}
	return out
}

// Counts reports live control and media session totals.
func (r *Registry) Counts() (control, media int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), len(r.media)
}
