package types

import "encoding/json"

// SignalType tags a message on the relay websocket.
type SignalType string

// Client-to-server and server-to-client relay message types.
const (
	SignalCreateRoom  SignalType = "create-room"
	SignalRoomCreated SignalType = "room-created"
	SignalJoinRoom    SignalType = "join-room"
	SignalRoomJoined  SignalType = "room-joined"
	SignalRejoinRoom  SignalType = "rejoin-room"
	SignalRejoinOK    SignalType = "rejoin-ok"
	SignalPeerJoined  SignalType = "peer-joined"
	SignalPeerLeft    SignalType = "peer-left"
	SignalRelay       SignalType = "signal"
	SignalLeaveRoom   SignalType = "leave-room"
	SignalError       SignalType = "error"
)

// SignalMessage is the JSON frame exchanged with the relay over /ws.
// Data is opaque to the relay: it carries SDP offers, answers, and ICE
// candidates the relay never inspects.
type SignalMessage struct {
	Type    SignalType      `json:"type"`
	RoomID  RoomID          `json:"roomId,omitempty"`
	Role    Role            `json:"role,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// TURNCredentials is the response of GET /api/turn-credentials. The
// credential is an HMAC over the ephemeral username, per the TURN REST
// credential convention.
type TURNCredentials struct {
	Username   string   `json:"username"`
	Credential string   `json:"credential"`
	TTL        int64    `json:"ttl"`
	URLs       []string `json:"urls"`
}
