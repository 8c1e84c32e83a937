package models

// Media kinds shared by rooms, chats, and stored messages. Rooms and
// chats are text or voice; messages are text, file, or image.
const (
	KindText  = "text"
	KindVoice = "voice"
	KindFile  = "file"
	KindImage = "image"
)

// KindOrText defaults an absent kind to text.
func KindOrText(kind string) string {
	if kind == "" {
		return KindText
	}
	return kind
}
