package gateway

import (
	"log/slog"

	"rcord/internal/metrics"
	"rcord/internal/models"
	"rcord/internal/protocol"
	"rcord/internal/store"
)

// controlConn serves one control connection. The username binds on a
// successful login and authorizes every later request on this
// connection.
type controlConn struct {
	srv      *Server
	peer     *peer
	username string
}

func (c *controlConn) run() {
	slog.Info("control connected", "component", "gateway", "remote", c.peer.RemoteAddr())
	defer func() {
		if c.username != "" {
			if err := c.srv.registry.SetOffline(c.username); err != nil {
				slog.Error("record offline", "component", "gateway", "user", c.username, "error", err)
			}
		}
		c.peer.Close()
		slog.Info("control disconnected", "component", "gateway", "remote", c.peer.RemoteAddr())
	}()

	sc := protocol.NewScanner(c.peer.conn)
	for sc.Scan() {
		req, err := protocol.Decode(sc.Bytes())
		if err != nil {
			c.send(protocol.ErrorReply(protocol.ErrInvalidJSON))
			continue
		}
		if c.dispatch(req) {
			return
		}
	}
	if err := sc.Err(); err != nil {
		slog.Debug("control read ended", "component", "gateway", "remote", c.peer.RemoteAddr(), "error", err)
	}
}

// dispatch routes one request. It reports true when the connection
// should close.
func (c *controlConn) dispatch(req *protocol.Request) bool {
	label := req.Action
	if !protocol.KnownControlAction(label) {
		label = "unknown"
	}
	metrics.Requests.WithLabelValues(label).Inc()

	switch req.Action {
	case protocol.ActionRegister:
		c.handleRegister(req)
	case protocol.ActionLogin:
		c.handleLogin(req)
	case protocol.ActionHeartbeat:
		c.handleHeartbeat()
	case protocol.ActionListUsers:
		c.handleListUsers()
	case protocol.ActionListRooms:
		c.handleListRooms()
	case protocol.ActionListChats:
		c.handleListChats()
	case protocol.ActionListInvites:
		c.handleListInvites()
	case protocol.ActionCreateRoom:
		c.handleCreateRoom(req)
	case protocol.ActionJoinRoom:
		c.handleJoinRoom(req)
	case protocol.ActionInviteRoom:
		c.handleInviteRoom(req)
	case protocol.ActionCreateChat:
		c.handleCreateChat(req)
	case protocol.ActionAcceptChat:
		c.handleAcceptChat(req)
	case protocol.ActionDeclineRoomInvite:
		c.handleDeclineRoomInvite(req)
	case protocol.ActionDeclineChatInvite:
		c.handleDeclineChatInvite(req)
	case protocol.ActionSendMessage:
		c.handleSendMessage(req)
	case protocol.ActionListMessages:
		c.handleListMessages(req)
	case protocol.ActionListMembers:
		c.handleListMembers(req)
	case protocol.ActionLogout:
		c.send(protocol.Reply{OK: true, Action: protocol.ActionLogout})
		return true
	default:
		c.send(protocol.ErrorReply(protocol.ErrUnknownAction))
	}
	return false
}

func (c *controlConn) send(v any) {
	if err := c.peer.WriteJSON(v); err != nil {
		slog.Debug("control write failed", "component", "gateway", "remote", c.peer.RemoteAddr(), "error", err)
	}
}

// requireAuth replies not_authenticated for requests arriving before a
// login on this connection.
func (c *controlConn) requireAuth() bool {
	if c.username == "" {
		c.send(protocol.ErrorReply(protocol.ErrNotAuthenticated))
		return false
	}
	return true
}

func (c *controlConn) handleRegister(req *protocol.Request) {
	if req.Username == "" || req.Password == "" {
		c.send(protocol.ErrorReply(protocol.ErrMissingCredentials))
		return
	}
	created, err := c.srv.store.RegisterUser(req.Username, req.Password)
	if err != nil {
		c.logPersist("register", err)
	}
	c.send(protocol.Reply{OK: created, Action: protocol.ActionRegister})
}

func (c *controlConn) handleLogin(req *protocol.Request) {
	if req.Username == "" || req.Password == "" {
		c.send(protocol.ErrorReply(protocol.ErrMissingCredentials))
		return
	}
	if c.srv.registry.IsOnline(req.Username) {
		c.send(protocol.ErrorReply(protocol.ErrAlreadyOnline))
		return
	}
	if !c.srv.store.ValidateLogin(req.Username, req.Password) {
		c.send(protocol.ErrorReply(protocol.ErrInvalidCredentials))
		return
	}
	sid, ok, err := c.srv.registry.Login(req.Username, c.peer)
	if err != nil {
		c.logPersist("login", err)
	}
	if !ok {
		c.send(protocol.ErrorReply(protocol.ErrAlreadyOnline))
		return
	}
	c.username = req.Username
	slog.Info("user logged in", "component", "gateway",
		"user", req.Username, "session_id", sid, "remote", c.peer.RemoteAddr())
	c.send(protocol.LoginResponse{
		OK:     true,
		Action: protocol.ActionLogin,
		Users:  c.srv.registry.UsersWithStatus(),
		Rooms:  c.srv.store.RoomsForUser(req.Username),
		Chats:  c.srv.store.ChatsForUser(req.Username),
		Invites: protocol.InviteCollection{
			Rooms: c.srv.store.RoomInvites(req.Username),
			Chats: c.srv.store.ChatInvites(req.Username),
		},
	})
}

func (c *controlConn) handleHeartbeat() {
	if !c.requireAuth() {
		return
	}
	if err := c.srv.registry.Touch(c.username); err != nil {
		c.logPersist("heartbeat", err)
	}
	c.send(protocol.Reply{OK: true, Action: protocol.ActionHeartbeat})
}

func (c *controlConn) handleListUsers() {
	c.send(protocol.UsersResponse{
		OK:     true,
		Action: protocol.ActionListUsers,
		Users:  c.srv.registry.UsersWithStatus(),
	})
}

func (c *controlConn) handleListRooms() {
	if !c.requireAuth() {
		return
	}
	c.send(protocol.RoomsResponse{
		OK:     true,
		Action: protocol.ActionListRooms,
		Rooms:  c.srv.store.RoomsForUser(c.username),
	})
}

func (c *controlConn) handleListChats() {
	if !c.requireAuth() {
		return
	}
	c.send(protocol.ChatsResponse{
		OK:     true,
		Action: protocol.ActionListChats,
		Chats:  c.srv.store.ChatsForUser(c.username),
	})
}

func (c *controlConn) handleListInvites() {
	if !c.requireAuth() {
		return
	}
	expiredRooms, expiredChats, err := c.srv.store.CleanupExpiredInvites(c.username)
	if err != nil {
		c.logPersist("list_invites", err)
	}
	resp := protocol.InvitesResponse{
		OK:      true,
		Action:  protocol.ActionListInvites,
		Expired: protocol.ExpiredInvites{Rooms: expiredRooms, Chats: expiredChats},
		Invites: protocol.InviteCollection{
			Rooms: c.srv.store.RoomInvites(c.username),
			Chats: c.srv.store.ChatInvites(c.username),
		},
	}
	if len(expiredRooms) > 0 || len(expiredChats) > 0 {
		resp.Error = protocol.ErrInviteExpired
	}
	c.send(resp)
}

func (c *controlConn) handleCreateRoom(req *protocol.Request) {
	if !c.requireAuth() {
		return
	}
	if req.Room == "" {
		c.send(protocol.ErrorReply(protocol.ErrMissingRoom))
		return
	}
	created, err := c.srv.store.CreateRoom(req.Room, c.username, req.Kind)
	if err != nil {
		c.logPersist("create_room", err)
	}
	c.send(protocol.RoomResponse{
		OK:     created,
		Action: protocol.ActionCreateRoom,
		Room:   req.Room,
		Kind:   models.KindOrText(req.Kind),
	})
}

func (c *controlConn) handleJoinRoom(req *protocol.Request) {
	if !c.requireAuth() {
		return
	}
	if req.Room == "" {
		c.send(protocol.ErrorReply(protocol.ErrMissingRoom))
		return
	}
	has, expired, err := c.srv.store.HasRoomInvite(c.username, req.Room)
	if err != nil {
		c.logPersist("join_room", err)
	}
	if expired {
		c.send(protocol.ErrorReply(protocol.ErrInviteExpired))
		return
	}
	if !has && !c.srv.store.RoomHasMember(req.Room, c.username) {
		c.send(protocol.ErrorReply(protocol.ErrInviteRequired))
		return
	}
	joined, err := c.srv.store.AddRoomMember(req.Room, c.username)
	if err != nil {
		c.logPersist("join_room", err)
	}
	c.send(protocol.RoomResponse{
		OK:     joined,
		Action: protocol.ActionJoinRoom,
		Room:   req.Room,
		Kind:   c.srv.store.RoomKind(req.Room),
	})
}

func (c *controlConn) handleInviteRoom(req *protocol.Request) {
	if !c.requireAuth() {
		return
	}
	if req.Room == "" || req.Username == "" {
		c.send(protocol.ErrorReply(protocol.ErrMissingParameters))
		return
	}
	if !c.srv.store.RoomHasMember(req.Room, c.username) {
		c.send(protocol.ErrorReply(protocol.ErrNotRoomMember))
		return
	}
	if !c.srv.store.UserExists(req.Username) {
		c.send(protocol.ErrorReply(protocol.ErrUserNotFound))
		return
	}
	invitedAt, err := c.srv.store.InviteToRoom(req.Username, req.Room)
	if err != nil {
		c.logPersist("invite_room", err)
	}
	invited := invitedAt != nil
	c.send(protocol.InviteRoomResponse{
		OK:       invited,
		Action:   protocol.ActionInviteRoom,
		Room:     req.Room,
		Username: req.Username,
	})
	if invited {
		c.srv.registry.SendToUser(req.Username, protocol.RoomInvitePush{
			Action:     protocol.ActionInviteReceived,
			InviteType: protocol.InviteTypeRoom,
			Room:       req.Room,
			Kind:       c.srv.store.RoomKind(req.Room),
			InvitedAt:  *invitedAt,
			From:       c.username,
		})
	}
}

func (c *controlConn) handleCreateChat(req *protocol.Request) {
	if !c.requireAuth() {
		return
	}
	if req.Username == "" {
		c.send(protocol.ErrorReply(protocol.ErrMissingUsername))
		return
	}
	if !c.srv.store.UserExists(req.Username) {
		c.send(protocol.ErrorReply(protocol.ErrUserNotFound))
		return
	}
	chatID := store.ChatIDFor(c.username, req.Username)
	if err := c.srv.store.CreateChat(chatID, c.username, req.Kind); err != nil {
		c.logPersist("create_chat", err)
	}
	invitedAt, err := c.srv.store.InviteToChat(req.Username, chatID)
	if err != nil {
		c.logPersist("create_chat", err)
	}
	c.send(protocol.ChatResponse{
		OK:     true,
		Action: protocol.ActionCreateChat,
		Chat:   chatID,
		Kind:   models.KindOrText(req.Kind),
	})
	if invitedAt != nil {
		c.srv.registry.SendToUser(req.Username, protocol.ChatInvitePush{
			Action:     protocol.ActionInviteReceived,
			InviteType: protocol.InviteTypeChat,
			Chat:       chatID,
			InvitedAt:  *invitedAt,
			From:       c.username,
			Kind:       models.KindOrText(req.Kind),
		})
	}
}

func (c *controlConn) handleAcceptChat(req *protocol.Request) {
	if !c.requireAuth() {
		return
	}
	if req.Chat == "" {
		c.send(protocol.ErrorReply(protocol.ErrMissingChat))
		return
	}
	accepted, expired, err := c.srv.store.AcceptChatInvite(c.username, req.Chat)
	if err != nil {
		c.logPersist("accept_chat", err)
	}
	if expired {
		c.send(protocol.ErrorReply(protocol.ErrInviteExpired))
		return
	}
	c.send(protocol.ChatResponse{
		OK:     accepted,
		Action: protocol.ActionAcceptChat,
		Chat:   req.Chat,
		Kind:   c.srv.store.ChatKind(req.Chat),
	})
}

func (c *controlConn) handleDeclineRoomInvite(req *protocol.Request) {
	if !c.requireAuth() {
		return
	}
	if req.Room == "" {
		c.send(protocol.ErrorReply(protocol.ErrMissingRoom))
		return
	}
	removed, err := c.srv.store.RemoveRoomInvite(c.username, req.Room)
	if err != nil {
		c.logPersist("decline_room_invite", err)
	}
	c.send(protocol.DeclineRoomResponse{
		OK:     removed,
		Action: protocol.ActionDeclineRoomInvite,
		Room:   req.Room,
	})
}

func (c *controlConn) handleDeclineChatInvite(req *protocol.Request) {
	if !c.requireAuth() {
		return
	}
	if req.Chat == "" {
		c.send(protocol.ErrorReply(protocol.ErrMissingChat))
		return
	}
	removed, err := c.srv.store.RemoveChatInvite(c.username, req.Chat)
	if err != nil {
		c.logPersist("decline_chat_invite", err)
	}
	c.send(protocol.DeclineChatResponse{
		OK:     removed,
		Action: protocol.ActionDeclineChatInvite,
		Chat:   req.Chat,
	})
}

// resolveTarget maps the room or chat named in a request to the
// message key, enforcing membership. An empty key means a reply was
// already sent.
func (c *controlConn) resolveTarget(req *protocol.Request) string {
	switch {
	case req.Room != "":
		if !c.srv.store.RoomHasMember(req.Room, c.username) {
			c.send(protocol.ErrorReply(protocol.ErrNotRoomMember))
			return ""
		}
		return protocol.RoomTarget(req.Room)
	case req.Chat != "":
		if !c.srv.store.ChatHasMember(req.Chat, c.username) {
			c.send(protocol.ErrorReply(protocol.ErrNotChatMember))
			return ""
		}
		return protocol.ChatTarget(req.Chat)
	}
	c.send(protocol.ErrorReply(protocol.ErrMissingTarget))
	return ""
}

func (c *controlConn) handleSendMessage(req *protocol.Request) {
	if !c.requireAuth() {
		return
	}
	target := c.resolveTarget(req)
	if target == "" {
		return
	}
	kind := models.KindOrText(req.Kind)
	var msg models.Message
	switch kind {
	case models.KindText:
		if req.Text == "" {
			c.send(protocol.ErrorReply(protocol.ErrMissingText))
			return
		}
		msg = models.Message{Kind: models.KindText, Text: req.Text}
	case models.KindFile, models.KindImage:
		if req.Filename == "" || req.Content == "" {
			c.send(protocol.ErrorReply(protocol.ErrMissingAttachment))
			return
		}
		msg = models.Message{Kind: kind, Filename: req.Filename, Content: req.Content}
	default:
		c.send(protocol.ErrorReply(protocol.ErrUnknownMessageKind))
		return
	}
	if _, err := c.srv.store.AddMessage(target, c.username, msg); err != nil {
		c.logPersist("send_message", err)
	}
	c.send(protocol.SendMessageResponse{
		OK:     true,
		Action: protocol.ActionSendMessage,
		Target: target,
		Kind:   kind,
	})
}

func (c *controlConn) handleListMessages(req *protocol.Request) {
	if !c.requireAuth() {
		return
	}
	target := c.resolveTarget(req)
	if target == "" {
		return
	}
	c.send(protocol.MessagesResponse{
		OK:       true,
		Action:   protocol.ActionListMessages,
		Target:   target,
		Messages: c.srv.store.Messages(target, req.Limit),
	})
}

func (c *controlConn) handleListMembers(req *protocol.Request) {
	if !c.requireAuth() {
		return
	}
	var target string
	var members []string
	switch {
	case req.Room != "":
		if !c.srv.store.RoomHasMember(req.Room, c.username) {
			c.send(protocol.ErrorReply(protocol.ErrNotRoomMember))
			return
		}
		target = protocol.RoomTarget(req.Room)
		members = c.srv.store.RoomMembers(req.Room)
	case req.Chat != "":
		if !c.srv.store.ChatHasMember(req.Chat, c.username) {
			c.send(protocol.ErrorReply(protocol.ErrNotChatMember))
			return
		}
		target = protocol.ChatTarget(req.Chat)
		members = c.srv.store.ChatMembers(req.Chat)
	default:
		c.send(protocol.ErrorReply(protocol.ErrMissingTarget))
		return
	}
	c.send(protocol.MembersResponse{
		OK:      true,
		Action:  protocol.ActionListMembers,
		Target:  target,
		Members: members,
	})
}

// logPersist records a store write failure. The in-memory state has
// already advanced, so the request is answered from it.
func (c *controlConn) logPersist(action string, err error) {
	slog.Error("persist failed", "component", "gateway", "action", action,
		"user", c.username, "error", err)
}
