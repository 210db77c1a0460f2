package control

import "encoding/json"

// Type tags a control message. The set is closed: anything else that
// arrives on the channel is chat text.
type Type string

const (
	TypeRenegotiate       Type = "renegotiate"
	TypeCallRequest       Type = "call-request"
	TypeCallResponse      Type = "call-response"
	TypeCallEnd           Type = "call-end"
	TypeCallSecurityAlert Type = "call-security-alert"
	TypeSecurityAlert     Type = "security-alert"
	TypeMessageAck        Type = "message-ack"
)

// known is the closed set of recognized control types.
var known = map[Type]bool{
	TypeRenegotiate:       true,
	TypeCallRequest:       true,
	TypeCallResponse:      true,
	TypeCallEnd:           true,
	TypeCallSecurityAlert: true,
	TypeSecurityAlert:     true,
	TypeMessageAck:        true,
}

// Message is the tagged union carried inside cipher envelopes. Fields
// beyond Type are populated per variant; Alert stays raw because the
// call variant carries an object and the plain variant a string.
type Message struct {
	Type     Type            `json:"type"`
	SDP      json.RawMessage `json:"sdp,omitempty"`
	Accepted bool            `json:"accepted,omitempty"`
	Alert    json.RawMessage `json:"alert,omitempty"`
	Counter  uint64          `json:"c,omitempty"`
}

// Encode serializes m for encryption.
func (m Message) Encode() (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Parse distinguishes control traffic from chat text. It returns ok=false
// for anything that is not a JSON object with a recognized type tag; such
// payloads are opaque chat text to the caller.
func Parse(plaintext string) (Message, bool) {
	var m Message
	if err := json.Unmarshal([]byte(plaintext), &m); err != nil {
		return Message{}, false
	}
	if !known[m.Type] {
		return Message{}, false
	}
	return m, true
}

// Renegotiate wraps a local SDP for transport through the encrypted
// channel instead of the relay.
func Renegotiate(sdp json.RawMessage) Message {
	return Message{Type: TypeRenegotiate, SDP: sdp}
}

// CallRequest asks the peer to start a voice call.
func CallRequest() Message { return Message{Type: TypeCallRequest} }

// CallResponse answers a pending call request.
func CallResponse(accepted bool) Message {
	return Message{Type: TypeCallResponse, Accepted: accepted}
}

// CallEnd hangs up the active or pending call.
func CallEnd() Message { return Message{Type: TypeCallEnd} }

// SecurityAlert forwards a local security notice to the peer.
func SecurityAlert(alert string) Message {
	raw, _ := json.Marshal(alert)
	return Message{Type: TypeSecurityAlert, Alert: raw}
}

// CallSecurityAlert forwards a structured call-security notice.
func CallSecurityAlert(alert json.RawMessage) Message {
	return Message{Type: TypeCallSecurityAlert, Alert: alert}
}

// Ack confirms receipt of the peer message with the given counter.
func Ack(counter uint64) Message {
	return Message{Type: TypeMessageAck, Counter: counter}
}
