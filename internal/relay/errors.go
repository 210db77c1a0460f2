package relay

import "errors"

// Protocol errors the relay reports in error frames.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
	ErrInviteUsed   = errors.New("invite already used")
)

// ProtocolError maps a relay error frame to a sentinel where one exists,
// so callers can match with errors.Is.
func ProtocolError(message string) error {
	switch message {
	case ErrRoomNotFound.Error():
		return ErrRoomNotFound
	case ErrRoomFull.Error():
		return ErrRoomFull
	case ErrInviteUsed.Error():
		return ErrInviteUsed
	}
	return errors.New(message)
}
