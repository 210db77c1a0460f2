package types

// EventKind discriminates session events delivered to the UI layer.
type EventKind int

const (
	// EventRoomReady means the relay assigned us a room; RoomID is set
	// and, for hosts, is the invite to share out of band.
	EventRoomReady EventKind = iota
	// EventConnected fires at most once per connection lifetime, when the
	// data channel first opens.
	EventConnected
	// EventSecurityEstablished fires once keys are derived; Fingerprint is set.
	EventSecurityEstablished
	// EventMessage carries decrypted peer chat text in Text.
	EventMessage
	// EventAck reports that the peer acknowledged the message sent with
	// counter Counter.
	EventAck
	// EventPeerLeft means the relay reported the peer leaving the room.
	EventPeerLeft
	// EventCallIncoming, EventCallAnswered and EventCallEnded track the
	// voice call overlay; Accepted is meaningful for EventCallAnswered.
	EventCallIncoming
	EventCallAnswered
	EventCallEnded
	// EventSecurityAlert carries a peer-raised security notice in Text.
	EventSecurityAlert
	// EventError carries a non-fatal session error.
	EventError
	// EventClosed is the last event a session emits.
	EventClosed
)

// Event is the session-to-UI notification. The session delivers events on
// a single channel instead of callbacks so consumers get a defined
// ordering and a defined end (EventClosed, then channel close).
type Event struct {
	Kind        EventKind
	RoomID      RoomID
	Fingerprint Fingerprint
	Text        string
	Counter     uint64
	Accepted    bool
	Err         error
}
