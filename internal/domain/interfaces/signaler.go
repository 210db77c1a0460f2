package interfaces

import (
	"context"
	"encoding/json"

	domaintypes "ghostchat/internal/domain/types"
)

// Signaler is how a session talks to the relay server before and around
// the direct peer transport. Implementations own the websocket, reconnect
// with backoff on socket loss, and deliver every server frame on Events.
type Signaler interface {
	// Connect dials the relay. It must be called before any other method.
	Connect(ctx context.Context) error

	CreateRoom() error
	JoinRoom(roomID domaintypes.RoomID) error
	RejoinRoom(roomID domaintypes.RoomID, role domaintypes.Role) error
	LeaveRoom() error

	// Signal relays opaque handshake data (SDP, ICE candidates) to the
	// other peer in the current room.
	Signal(data json.RawMessage) error

	// Events yields every message the relay pushes. The channel closes
	// when the connection is gone for good (closed, or reconnect
	// attempts exhausted).
	Events() <-chan domaintypes.SignalMessage

	Close() error
}

// TURNProvider fetches short-lived TURN relay credentials.
type TURNProvider interface {
	TURNCredentials(ctx context.Context) (domaintypes.TURNCredentials, error)
}
