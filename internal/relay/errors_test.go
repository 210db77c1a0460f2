package relay

import (
	"errors"
	"testing"
)

func TestProtocolErrorMapping(t *testing.T) {
	if err := ProtocolError("room not found"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("ProtocolError = %v, want ErrRoomNotFound", err)
	}
	if err := ProtocolError("room full"); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("ProtocolError = %v, want ErrRoomFull", err)
	}
	if err := ProtocolError("invite already used"); !errors.Is(err, ErrInviteUsed) {
		t.Fatalf("ProtocolError = %v, want ErrInviteUsed", err)
	}

	err := ProtocolError("something else")
	if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrRoomFull) || errors.Is(err, ErrInviteUsed) {
		t.Fatalf("unknown message mapped to a sentinel: %v", err)
	}
	if err.Error() != "something else" {
		t.Fatalf("unknown message lost its text: %v", err)
	}
}
