package types

// ConnState is the connection state machine for one session. Transitions
// happen in exactly one place (the session's signal/transport handlers) so
// invalid combinations cannot be represented.
type ConnState int

const (
	// ConnIdle is the zero state before any room exists.
	ConnIdle ConnState = iota
	// ConnRoomPending means a room has been created or joined on the relay
	// but no peer transport exists yet.
	ConnRoomPending
	// ConnConnecting means offer/answer and ICE exchange are in flight.
	ConnConnecting
	// ConnDataChannelOpen means the data channel is open but keys are not
	// yet agreed.
	ConnDataChannelOpen
	// ConnChat means keys are derived and encrypted traffic can flow.
	ConnChat
	// ConnClosed is terminal.
	ConnClosed
)

// String returns a readable state name.
func (s ConnState) String() string {
	switch s {
	case ConnIdle:
		return "idle"
	case ConnRoomPending:
		return "room-pending"
	case ConnConnecting:
		return "connecting"
	case ConnDataChannelOpen:
		return "data-channel-open"
	case ConnChat:
		return "chat"
	case ConnClosed:
		return "closed"
	}
	return "unknown"
}

// CallState tracks the voice call overlay, orthogonal to ConnState.
type CallState int

const (
	// CallIdle means no call activity.
	CallIdle CallState = iota
	// CallDialing means we sent a call-request and wait for the answer.
	CallDialing
	// CallRinging means the peer sent a call-request we have not answered.
	CallRinging
	// CallActive means both sides accepted and media is negotiated.
	CallActive
)

// String returns a readable call state name.
func (s CallState) String() string {
	switch s {
	case CallIdle:
		return "idle"
	case CallDialing:
		return "dialing"
	case CallRinging:
		return "ringing"
	case CallActive:
		return "active"
	}
	return "unknown"
}

// Handle is the non-sensitive rejoin token kept in local storage: enough
// to re-enter a surviving room after a restart, nothing more.
type Handle struct {
	RoomID RoomID `json:"roomId"`
	IsHost bool   `json:"isHost"`
	TS     int64  `json:"ts"`
}

// HandleTTLMillis is how long a stored handle stays usable.
const HandleTTLMillis = 600_000

// Expired reports whether the handle is older than the rejoin window.
func (h Handle) Expired(nowMillis int64) bool {
	return nowMillis-h.TS > HandleTTLMillis
}
