package session

import (
	"encoding/json"
	"errors"

	"github.com/pion/webrtc/v4"

	"ghostchat/internal/domain"
	"ghostchat/internal/protocol/cipher"
	"ghostchat/internal/protocol/control"
)

// ErrCallBusy means a call is already dialing, ringing, or active.
var ErrCallBusy = errors.New("call already in progress")

// Send encrypts and sends chat text, returning the counter assigned to
// the message so the caller can match the peer's acknowledgement.
func (s *Session) Send(text string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != domain.ConnChat || s.dc == nil {
		return 0, ErrNotInChat
	}

	sealed, err := s.engine.Encrypt(text)
	if err != nil {
		return 0, err
	}
	if err := s.sendEnvelopeLocked(sealed); err != nil {
		return 0, err
	}
	return s.engine.Counter(), nil
}

// StartCall asks the peer to begin a voice call.
func (s *Session) StartCall() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != domain.ConnChat {
		return ErrNotInChat
	}
	if s.callState != domain.CallIdle {
		return ErrCallBusy
	}
	s.callState = domain.CallDialing
	s.sendControlLocked(control.CallRequest())
	return nil
}

// AnswerCall accepts or rejects the ringing call.
func (s *Session) AnswerCall(accept bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != domain.ConnChat {
		return ErrNotInChat
	}
	if s.callState != domain.CallRinging {
		return nil
	}
	if accept {
		s.callState = domain.CallActive
	} else {
		s.callState = domain.CallIdle
	}
	s.sendControlLocked(control.CallResponse(accept))
	return nil
}

// EndCall hangs up whatever call activity exists.
func (s *Session) EndCall() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.callState == domain.CallIdle {
		return nil
	}
	s.callState = domain.CallIdle
	s.sendControlLocked(control.CallEnd())
	return nil
}

// handleChannelData routes one data channel frame: the clear key
// exchange, or an encrypted envelope.
func (s *Session) handleChannelData(data string) {
	var env domain.ChannelEnvelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return
	}
	switch env.Type {
	case domain.EnvelopeKeyExchange:
		s.handleKeyExchange(env.PublicKey)
	case domain.EnvelopeEncrypted:
		s.handleEncrypted(env.Data)
	}
}

// handleKeyExchange imports the peer key and derives directional keys.
// Key agreement failures are fatal to the session.
func (s *Session) handleKeyExchange(publicKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if !s.engine.Ready() {
		if err := s.engine.ImportPeerKey(publicKey); err != nil {
			s.failLocked(err)
			return
		}
		if err := s.engine.DeriveSharedKeys(); err != nil {
			s.failLocked(err)
			return
		}
	}
	s.enterChatLocked()
}

// enterChatLocked moves to the chat state once, after keys exist and the
// channel is open.
func (s *Session) enterChatLocked() {
	if s.state != domain.ConnDataChannelOpen || !s.engine.Ready() {
		return
	}
	fp, err := s.engine.Fingerprint()
	if err != nil {
		s.failLocked(err)
		return
	}
	s.state = domain.ConnChat
	s.emitLocked(domain.Event{
		Kind:        domain.EventSecurityEstablished,
		RoomID:      s.roomID,
		Fingerprint: fp,
	})
}

// handleEncrypted opens an envelope and dispatches control traffic or
// chat text. Integrity failures drop the message and keep the session.
func (s *Session) handleEncrypted(data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	plaintext, err := s.engine.Decrypt(data)
	if err != nil {
		s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
		if errors.Is(err, cipher.ErrReplayAttack) {
			s.sendControlLocked(control.SecurityAlert("replayed message rejected"))
		}
		return
	}

	if msg, ok := control.Parse(plaintext); ok {
		s.handleControlLocked(msg)
		return
	}

	counter := s.engine.LastReceivedCounter()
	s.emitLocked(domain.Event{
		Kind:    domain.EventMessage,
		RoomID:  s.roomID,
		Text:    plaintext,
		Counter: counter,
	})
	if counter > 0 {
		s.sendControlLocked(control.Ack(counter))
	}
}

// handleControlLocked dispatches one decrypted control message.
func (s *Session) handleControlLocked(msg control.Message) {
	switch msg.Type {
	case control.TypeRenegotiate:
		s.handleRenegotiateLocked(msg.SDP)

	case control.TypeCallRequest:
		s.callState = domain.CallRinging
		s.emitLocked(domain.Event{Kind: domain.EventCallIncoming})

	case control.TypeCallResponse:
		if s.callState != domain.CallDialing {
			return
		}
		if msg.Accepted {
			s.callState = domain.CallActive
		} else {
			s.callState = domain.CallIdle
		}
		s.emitLocked(domain.Event{Kind: domain.EventCallAnswered, Accepted: msg.Accepted})

	case control.TypeCallEnd:
		s.callState = domain.CallIdle
		s.emitLocked(domain.Event{Kind: domain.EventCallEnded})

	case control.TypeSecurityAlert:
		var alert string
		_ = json.Unmarshal(msg.Alert, &alert)
		s.emitLocked(domain.Event{Kind: domain.EventSecurityAlert, Text: alert})

	case control.TypeCallSecurityAlert:
		s.emitLocked(domain.Event{Kind: domain.EventSecurityAlert, Text: string(msg.Alert)})

	case control.TypeMessageAck:
		// Acks above the sent counter refer to nothing we sent; ignore.
		if msg.Counter <= s.engine.Counter() {
			s.emitLocked(domain.Event{Kind: domain.EventAck, Counter: msg.Counter})
		}
	}
}

// handleRenegotiateLocked applies a renegotiation offer or answer that
// arrived through the encrypted channel.
func (s *Session) handleRenegotiateLocked(raw json.RawMessage) {
	if s.pc == nil {
		return
	}
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		return
	}

	if err := s.pc.SetRemoteDescription(desc); err != nil {
		s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
		return
	}
	if desc.Type != webrtc.SDPTypeOffer {
		s.renegotiate = false
		return
	}

	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
		return
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
		return
	}
	out, err := json.Marshal(answer)
	if err != nil {
		return
	}
	s.sendControlLocked(control.Renegotiate(out))
}

// sendControlLocked encrypts and sends a control message, or silently
// drops it when keys or the transport are not ready. No queueing.
func (s *Session) sendControlLocked(msg control.Message) {
	if s.dc == nil || !s.engine.Ready() {
		return
	}
	encoded, err := msg.Encode()
	if err != nil {
		return
	}
	sealed, err := s.engine.Encrypt(encoded)
	if err != nil {
		return
	}
	_ = s.sendEnvelopeLocked(sealed)
}

// sendEnvelopeLocked wraps sealed data and writes it to the channel.
func (s *Session) sendEnvelopeLocked(sealed string) error {
	env := domain.ChannelEnvelope{Type: domain.EnvelopeEncrypted, Data: sealed}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.dc.SendText(string(raw))
}

// failLocked surfaces a fatal error and schedules the shutdown outside
// the lock.
func (s *Session) failLocked(err error) {
	s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
	go func() { _ = s.Close() }()
}
