package models

import (
	"bytes"
	"encoding/json"
)

// RoomInvite is a pending invitation to a room. Two shapes exist on disk:
// the current object form {"room": ..., "invited_at": ...} and a legacy
// bare string holding just the room name. Both are accepted on read; only
// the object form is written back. Invites without an invited_at never
// expire.
type RoomInvite struct {
	Room      string `json:"room"`
	InvitedAt string `json:"invited_at,omitempty"`
}

func (i *RoomInvite) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &i.Room)
	}
	type plain RoomInvite
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*i = RoomInvite(p)
	return nil
}

// ChatInvite is the chat counterpart of RoomInvite, with the same legacy
// bare-string handling.
type ChatInvite struct {
	Chat      string `json:"chat"`
	InvitedAt string `json:"invited_at,omitempty"`
}

func (i *ChatInvite) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &i.Chat)
	}
	type plain ChatInvite
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*i = ChatInvite(p)
	return nil
}

// UserInvites is one user's bucket of pending invitations.
type UserInvites struct {
	Rooms []RoomInvite `json:"rooms"`
	Chats []ChatInvite `json:"chats"`
}

// RoomInviteSummary is the wire shape of a room invite in listings: the
// room's kind is resolved at listing time and InvitedAt is null for legacy
// invites.
type RoomInviteSummary struct {
	Room      string  `json:"room"`
	InvitedAt *string `json:"invited_at"`
	Kind      string  `json:"kind"`
}

// ChatInviteSummary is the chat counterpart of RoomInviteSummary.
type ChatInviteSummary struct {
	Chat      string  `json:"chat"`
	InvitedAt *string `json:"invited_at"`
	Kind      string  `json:"kind"`
}
