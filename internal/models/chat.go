package models

// Chat is a direct conversation between two users. Its ID is derived from
// the participant names; Participants only lists users who actually joined
// (the invitee is added on accept, not on creation).
type Chat struct {
	Participants []string `json:"participants"`
	CreatedAt    string   `json:"created_at,omitempty"`
	Kind         string   `json:"kind,omitempty"`
}

// ChatSummary is the wire shape of one entry in a `chats` listing.
type ChatSummary struct {
	Chat string `json:"chat"`
	Kind string `json:"kind"`
}
