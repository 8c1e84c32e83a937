// Package protocol defines the newline-delimited JSON frames spoken on
// the control and media listeners, and the codec for reading them.
package protocol

import (
	"strings"

	"rcord/internal/models"
)

// Control actions.
const (
	ActionRegister          = "register"
	ActionLogin             = "login"
	ActionHeartbeat         = "heartbeat"
	ActionListUsers         = "list_users"
	ActionListRooms         = "list_rooms"
	ActionListChats         = "list_chats"
	ActionListInvites       = "list_invites"
	ActionCreateRoom        = "create_room"
	ActionJoinRoom          = "join_room"
	ActionInviteRoom        = "invite_room"
	ActionCreateChat        = "create_chat"
	ActionAcceptChat        = "accept_chat"
	ActionDeclineRoomInvite = "decline_room_invite"
	ActionDeclineChatInvite = "decline_chat_invite"
	ActionSendMessage       = "send_message"
	ActionListMessages      = "list_messages"
	ActionListMembers       = "list_members"
	ActionLogout            = "logout"
)

// Media actions.
const (
	ActionMediaLogin  = "media_login"
	ActionVoiceChunk  = "voice_chunk"
	ActionScreenFrame = "screen_frame"
)

// ActionInviteReceived is the server-initiated push written to an
// invitee's control connection.
const ActionInviteReceived = "invite_received"

// Invite push discriminators.
const (
	InviteTypeRoom = "room"
	InviteTypeChat = "chat"
)

// Target classes parsed from wire descriptors.
const (
	TargetRoom = "room"
	TargetChat = "chat"
)

// Request is the union of all fields a client frame may carry, on
// either listener. Unknown keys are ignored.
type Request struct {
	Action   string `json:"action"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Room     string `json:"room,omitempty"`
	Chat     string `json:"chat,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Text     string `json:"text,omitempty"`
	Filename string `json:"filename,omitempty"`
	Content  string `json:"content,omitempty"`
	Limit    *int   `json:"limit,omitempty"`
	Target   string `json:"target,omitempty"`
	Audio    string `json:"audio,omitempty"`
	Frame    string `json:"frame,omitempty"`
}

// Reply is the minimal response frame. Failed requests carry only ok
// and error; a few actions reply with ok false and no error when the
// operation was a no-op.
type Reply struct {
	OK     bool   `json:"ok"`
	Action string `json:"action,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ErrorReply builds the standard failure frame for an error code.
func ErrorReply(code string) Reply {
	return Reply{OK: false, Error: code}
}

// InviteCollection groups pending invites by class.
type InviteCollection struct {
	Rooms []models.RoomInviteSummary `json:"rooms"`
	Chats []models.ChatInviteSummary `json:"chats"`
}

// ExpiredInvites names the targets evicted during a sweep.
type ExpiredInvites struct {
	Rooms []string `json:"rooms"`
	Chats []string `json:"chats"`
}

// LoginResponse bootstraps a client with its full visible state.
type LoginResponse struct {
	OK      bool                 `json:"ok"`
	Action  string               `json:"action"`
	Users   []models.UserStatus  `json:"users"`
	Rooms   []models.RoomSummary `json:"rooms"`
	Chats   []models.ChatSummary `json:"chats"`
	Invites InviteCollection     `json:"invites"`
}

// UsersResponse answers list_users.
type UsersResponse struct {
	OK     bool                `json:"ok"`
	Action string              `json:"action"`
	Users  []models.UserStatus `json:"users"`
}

// RoomsResponse answers list_rooms.
type RoomsResponse struct {
	OK     bool                 `json:"ok"`
	Action string               `json:"action"`
	Rooms  []models.RoomSummary `json:"rooms"`
}

// ChatsResponse answers list_chats.
type ChatsResponse struct {
	OK     bool                `json:"ok"`
	Action string              `json:"action"`
	Chats  []models.ChatSummary `json:"chats"`
}

// InvitesResponse answers list_invites. Error is set to invite_expired
// when the sweep evicted anything, with OK still true.
type InvitesResponse struct {
	OK      bool             `json:"ok"`
	Action  string           `json:"action"`
	Expired ExpiredInvites   `json:"expired"`
	Invites InviteCollection `json:"invites"`
	Error   string           `json:"error,omitempty"`
}

// RoomResponse answers create_room and join_room.
type RoomResponse struct {
	OK     bool   `json:"ok"`
	Action string `json:"action"`
	Room   string `json:"room"`
	Kind   string `json:"kind"`
}

// InviteRoomResponse answers invite_room.
type InviteRoomResponse struct {
	OK       bool   `json:"ok"`
	Action   string `json:"action"`
	Room     string `json:"room"`
	Username string `json:"username"`
}

// ChatResponse answers create_chat and accept_chat.
type ChatResponse struct {
	OK     bool   `json:"ok"`
	Action string `json:"action"`
	Chat   string `json:"chat"`
	Kind   string `json:"kind"`
}

// DeclineRoomResponse answers decline_room_invite. OK is false when no
// invite was pending.
type DeclineRoomResponse struct {
	OK     bool   `json:"ok"`
	Action string `json:"action"`
	Room   string `json:"room"`
}

// DeclineChatResponse answers decline_chat_invite.
type DeclineChatResponse struct {
	OK     bool   `json:"ok"`
	Action string `json:"action"`
	Chat   string `json:"chat"`
}

// SendMessageResponse answers send_message with the resolved target
// key.
type SendMessageResponse struct {
	OK     bool   `json:"ok"`
	Action string `json:"action"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// MessagesResponse answers list_messages.
type MessagesResponse struct {
	OK       bool             `json:"ok"`
	Action   string           `json:"action"`
	Target   string           `json:"target"`
	Messages []models.Message `json:"messages"`
}

// MembersResponse answers list_members.
type MembersResponse struct {
	OK      bool     `json:"ok"`
	Action  string   `json:"action"`
	Target  string   `json:"target"`
	Members []string `json:"members"`
}

// RoomInvitePush notifies an online invitee of a room invite.
type RoomInvitePush struct {
	Action     string `json:"action"`
	InviteType string `json:"invite_type"`
	Room       string `json:"room"`
	Kind       string `json:"kind"`
	InvitedAt  string `json:"invited_at"`
	From       string `json:"from"`
}

// ChatInvitePush notifies an online invitee of a chat invite.
type ChatInvitePush struct {
	Action     string `json:"action"`
	InviteType string `json:"invite_type"`
	Chat       string `json:"chat"`
	InvitedAt  string `json:"invited_at"`
	From       string `json:"from"`
	Kind       string `json:"kind"`
}

// MediaFrame is the relay payload fanned out to media peers. Exactly
// one of Audio or Frame is set, mirroring the inbound action.
type MediaFrame struct {
	Action string `json:"action"`
	From   string `json:"from"`
	Target string `json:"target"`
	Audio  string `json:"audio,omitempty"`
	Frame  string `json:"frame,omitempty"`
}

// RoomTarget builds the wire descriptor and message key for a room.
func RoomTarget(room string) string { return "room:" + room }

// ChatTarget builds the wire descriptor and message key for a chat.
func ChatTarget(chat string) string { return "chat:" + chat }

// ParseTarget splits a descriptor of the form room:<name> or chat:<id>.
// Names may themselves contain colons; only the first separates.
func ParseTarget(target string) (class, name string, ok bool) {
	switch {
	case strings.HasPrefix(target, "room:"):
		return TargetRoom, strings.TrimPrefix(target, "room:"), true
	case strings.HasPrefix(target, "chat:"):
		return TargetChat, strings.TrimPrefix(target, "chat:"), true
	}
	return "", "", false
}

// KnownControlAction reports whether action is part of the control
// vocabulary. Used to bound metric label cardinality.
func KnownControlAction(action string) bool {
	switch action {
	case ActionRegister, ActionLogin, ActionHeartbeat,
		ActionListUsers, ActionListRooms, ActionListChats, ActionListInvites,
		ActionCreateRoom, ActionJoinRoom, ActionInviteRoom,
		ActionCreateChat, ActionAcceptChat,
		ActionDeclineRoomInvite, ActionDeclineChatInvite,
		ActionSendMessage, ActionListMessages, ActionListMembers,
		ActionLogout:
		return true
	}
	return false
}
