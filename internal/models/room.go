package models

// Room is a named multi-user channel. Members keeps join order with the
// creator first.
type Room struct {
	Members   []string `json:"members"`
	CreatedAt string   `json:"created_at,omitempty"`
	Kind      string   `json:"kind,omitempty"`
}

// RoomSummary is the wire shape of one entry in a `rooms` listing.
type RoomSummary struct {
	Room string `json:"room"`
	Kind string `json:"kind"`
}
