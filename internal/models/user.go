package models

// User is a registered account as persisted in the database file.
// Passwords are stored as provided; login compares them verbatim.
type User struct {
	Password  string `json:"password"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Status is the persisted presence mirror for one user. LastSeen is an
// ISO-8601 UTC timestamp, empty when never observed.
type Status struct {
	Online   bool   `json:"online"`
	LastSeen string `json:"last_seen"`
}

// UserStatus is the wire shape of one entry in a `users` listing.
type UserStatus struct {
	Username string  `json:"username"`
	Online   bool    `json:"online"`
	LastSeen *string `json:"last_seen"`
}
