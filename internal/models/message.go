package models

// Message is one persisted message. Text messages carry Text; file and
// image messages carry Filename plus base64 Content. Stored payloads are
// returned byte-for-byte as they were sent.
type Message struct {
	Sender   string `json:"sender"`
	TS       string `json:"ts"`
	Kind     string `json:"kind,omitempty"`
	Text     string `json:"text,omitempty"`
	Filename string `json:"filename,omitempty"`
	Content  string `json:"content,omitempty"`
}
