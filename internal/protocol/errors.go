package protocol

// Error codes carried in the error field of failed replies.
const (
	ErrMissingCredentials = "missing_credentials"
	ErrInvalidCredentials = "invalid_credentials"
	ErrAlreadyOnline      = "already_online"
	ErrNotAuthenticated   = "not_authenticated"

	ErrUserNotFound      = "user_not_found"
	ErrMissingRoom       = "missing_room"
	ErrMissingChat       = "missing_chat"
	ErrMissingTarget     = "missing_target"
	ErrMissingUsername   = "missing_username"
	ErrMissingParameters = "missing_parameters"
	ErrMissingText       = "missing_text"
	ErrMissingAttachment = "missing_attachment"
	ErrMissingPayload    = "missing_payload"

	ErrNotRoomMember  = "not_room_member"
	ErrNotChatMember  = "not_chat_member"
	ErrInviteRequired = "invite_required"
	ErrInviteExpired  = "invite_expired"

	ErrUnknownMessageKind = "unknown_message_kind"
	ErrUnknownAction      = "unknown_action"
	ErrUnknownTarget      = "unknown_target"
	ErrInvalidJSON        = "invalid_json"
)
