package gateway

import (
	"log/slog"

	"rcord/internal/protocol"
)

// mediaConn serves one media connection. The binding piggybacks on the
// user's control session; no password travels on this listener.
type mediaConn struct {
	srv      *Server
	peer     *peer
	username string
}

func (m *mediaConn) run() {
	slog.Info("media connected", "component", "gateway", "remote", m.peer.RemoteAddr())
	defer func() {
		if m.username != "" {
			m.srv.registry.ReleaseMedia(m.username, m.peer)
		}
		m.peer.Close()
		slog.Info("media disconnected", "component", "gateway", "remote", m.peer.RemoteAddr())
	}()

	sc := protocol.NewScanner(m.peer.conn)
	for sc.Scan() {
		req, err := protocol.Decode(sc.Bytes())
		if err != nil {
			// Malformed frames on the media port are dropped, not answered.
			slog.Debug("discarding malformed media frame", "component", "gateway",
				"remote", m.peer.RemoteAddr())
			continue
		}
		switch req.Action {
		case protocol.ActionMediaLogin:
			m.handleLogin(req)
		case protocol.ActionVoiceChunk, protocol.ActionScreenFrame:
			m.relay(req)
		default:
			m.send(protocol.ErrorReply(protocol.ErrUnknownAction))
		}
	}
	if err := sc.Err(); err != nil {
		slog.Debug("media read ended", "component", "gateway", "remote", m.peer.RemoteAddr(), "error", err)
	}
}

func (m *mediaConn) send(v any) {
	if err := m.peer.WriteJSON(v); err != nil {
		slog.Debug("media write failed", "component", "gateway", "remote", m.peer.RemoteAddr(), "error", err)
	}
}

// handleLogin binds this connection to a user who already holds a
// control session. A failed login leaves the connection open.
func (m *mediaConn) handleLogin(req *protocol.Request) {
	if req.Username == "" || !m.srv.registry.IsOnline(req.Username) {
		m.send(protocol.ErrorReply(protocol.ErrNotAuthenticated))
		return
	}
	m.username = req.Username
	m.srv.registry.BindMedia(req.Username, m.peer)
	slog.Info("media bound", "component", "gateway", "user", req.Username, "remote", m.peer.RemoteAddr())
	m.send(protocol.Reply{OK: true, Action: protocol.ActionMediaLogin})
}

// relay authorizes one frame against the target's membership and fans
// it out to every co-member except the sender.
func (m *mediaConn) relay(req *protocol.Request) {
	if m.username == "" {
		m.send(protocol.ErrorReply(protocol.ErrNotAuthenticated))
		return
	}
	payload := req.Audio
	if req.Action == protocol.ActionScreenFrame {
		payload = req.Frame
	}
	if req.Target == "" || payload == "" {
		m.send(protocol.ErrorReply(protocol.ErrMissingPayload))
		return
	}
	class, name, ok := protocol.ParseTarget(req.Target)
	if !ok {
		m.send(protocol.ErrorReply(protocol.ErrUnknownTarget))
		return
	}
	var recipients []string
	switch class {
	case protocol.TargetRoom:
		if !m.srv.store.RoomHasMember(name, m.username) {
			m.send(protocol.ErrorReply(protocol.ErrNotRoomMember))
			return
		}
		recipients = m.srv.store.RoomMembers(name)
	case protocol.TargetChat:
		if !m.srv.store.ChatHasMember(name, m.username) {
			m.send(protocol.ErrorReply(protocol.ErrNotChatMember))
			return
		}
		recipients = m.srv.store.ChatMembers(name)
	}
	frame := &protocol.MediaFrame{Action: req.Action, From: m.username, Target: req.Target}
	if req.Action == protocol.ActionScreenFrame {
		frame.Frame = payload
	} else {
		frame.Audio = payload
	}
	m.srv.registry.BroadcastMedia(recipients, m.username, frame)
}
