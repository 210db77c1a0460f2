package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pion/webrtc/v4"

	"ghostchat/internal/domain"
	"ghostchat/internal/protocol/control"
)

const dataChannelLabel = "ghost"

var defaultSTUNURLs = []string{"stun:stun.l.google.com:19302"}

// signalPayload is the handshake frame relayed between peers. The relay
// never inspects it.
type signalPayload struct {
	Type      string                   `json:"type"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
}

// sendableCandidate reports whether a locally gathered candidate may be
// sent to the peer. Privacy mode hides everything that would expose a
// host or reflexive address.
func sendableCandidate(privacy bool, typ webrtc.ICECandidateType) bool {
	return !privacy || typ == webrtc.ICECandidateTypeRelay
}

// startHandshakeLocked tears down any previous transport and starts a
// fresh offer/answer cycle. The host opens the data channel and offers;
// the guest waits for the channel from the peer.
func (s *Session) startHandshakeLocked() {
	s.teardownTransportLocked()

	pc, err := webrtc.NewPeerConnection(s.transportConfig())
	if err != nil {
		s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
		return
	}
	s.pc = pc
	s.remoteSet = false
	s.pending = nil
	s.keySent = false
	s.renegotiate = false
	s.state = domain.ConnConnecting
	s.armConnectTimerLocked()

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.pc != pc {
			return
		}
		if !sendableCandidate(s.cfg.Privacy, c.Typ) {
			return
		}
		init := c.ToJSON()
		s.sendSignalLocked(signalPayload{Type: "candidate", Candidate: &init})
	})

	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		s.onICEStateChange(pc, state)
	})

	pc.OnNegotiationNeeded(func() {
		s.onNegotiationNeeded(pc)
	})

	if s.role == domain.RoleHost {
		dc, err := pc.CreateDataChannel(dataChannelLabel, nil)
		if err != nil {
			s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
			return
		}
		s.attachChannelLocked(dc)

		offer, err := pc.CreateOffer(nil)
		if err != nil {
			s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
			return
		}
		if err := pc.SetLocalDescription(offer); err != nil {
			s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
			return
		}
		s.sendSignalLocked(signalPayload{Type: "offer", SDP: offer.SDP})
		return
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.pc != pc {
			return
		}
		s.attachChannelLocked(dc)
	})
}

// transportConfig assembles the ICE server list, asking the TURN provider
// for fresh credentials when one is configured.
func (s *Session) transportConfig() webrtc.Configuration {
	servers := []webrtc.ICEServer{}
	stun := s.cfg.STUNURLs
	if len(stun) == 0 {
		stun = defaultSTUNURLs
	}
	if !s.cfg.Privacy {
		servers = append(servers, webrtc.ICEServer{URLs: stun})
	}

	if s.cfg.TURN != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		creds, err := s.cfg.TURN.TURNCredentials(ctx)
		if err != nil {
			s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
		} else {
			servers = append(servers, webrtc.ICEServer{
				URLs:       creds.URLs,
				Username:   creds.Username,
				Credential: creds.Credential,
			})
		}
	}

	cfg := webrtc.Configuration{ICEServers: servers}
	if s.cfg.Privacy {
		cfg.ICETransportPolicy = webrtc.ICETransportPolicyRelay
	}
	return cfg
}

// attachChannelLocked wires the data channel callbacks.
func (s *Session) attachChannelLocked(dc *webrtc.DataChannel) {
	s.dc = dc
	dc.OnOpen(func() {
		s.onChannelOpen(dc)
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		s.handleChannelData(string(msg.Data))
	})
	dc.OnClose(func() {
		s.onChannelClosed(dc)
	})
}

// onChannelOpen fires the connected transition at most once per transport
// and sends the single clear key-exchange frame.
func (s *Session) onChannelOpen(dc *webrtc.DataChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.dc != dc || s.state >= domain.ConnDataChannelOpen {
		return
	}
	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}
	s.state = domain.ConnDataChannelOpen
	s.emitLocked(domain.Event{Kind: domain.EventConnected, RoomID: s.roomID})

	if !s.keySent {
		env := domain.ChannelEnvelope{
			Type:      domain.EnvelopeKeyExchange,
			PublicKey: s.engine.ExportPublicKey(),
		}
		raw, err := json.Marshal(env)
		if err == nil && dc.SendText(string(raw)) == nil {
			s.keySent = true
		}
	}

	// After a reconnect the keys already exist; no second exchange.
	if s.engine.Ready() {
		s.enterChatLocked()
	}
}

func (s *Session) onChannelClosed(dc *webrtc.DataChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.dc != dc {
		return
	}
	s.teardownTransportLocked()
	s.state = domain.ConnRoomPending
	s.emitLocked(domain.Event{Kind: domain.EventError, Err: ErrChannelClosed})
}

// onICEStateChange arms the disconnect grace timer on "disconnected" and
// cancels it on any later transition; "failed" tears down immediately.
func (s *Session) onICEStateChange(pc *webrtc.PeerConnection, state webrtc.ICEConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.pc != pc {
		return
	}

	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}

	switch state {
	case webrtc.ICEConnectionStateDisconnected:
		s.graceTimer = time.AfterFunc(disconnectGrace, func() {
			s.onDisconnectGraceExpired(pc)
		})
	case webrtc.ICEConnectionStateFailed:
		s.teardownTransportLocked()
		s.state = domain.ConnRoomPending
		s.emitLocked(domain.Event{Kind: domain.EventError, Err: ErrChannelClosed})
	}
}

// onDisconnectGraceExpired declares disconnection only if the transport
// never recovered during the grace window.
func (s *Session) onDisconnectGraceExpired(pc *webrtc.PeerConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.pc != pc {
		return
	}
	if pc.ICEConnectionState() != webrtc.ICEConnectionStateDisconnected {
		return
	}
	s.teardownTransportLocked()
	s.state = domain.ConnRoomPending
	s.emitLocked(domain.Event{Kind: domain.EventError, Err: ErrChannelClosed})
}

func (s *Session) armConnectTimerLocked() {
	pc := s.pc
	s.connectTimer = time.AfterFunc(connectTimeout, func() {
		s.mu.Lock()
		stale := s.closed || s.pc != pc || s.state != domain.ConnConnecting
		s.mu.Unlock()
		if stale {
			return
		}
		s.fail(ErrConnectTimeout)
	})
}

// handleRemoteSignalLocked applies a relayed offer, answer, or candidate.
func (s *Session) handleRemoteSignalLocked(data json.RawMessage) {
	if s.pc == nil {
		return
	}
	var p signalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	switch p.Type {
	case "offer":
		desc := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: p.SDP}
		if err := s.pc.SetRemoteDescription(desc); err != nil {
			s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
			return
		}
		s.remoteSet = true
		s.flushPendingLocked()

		answer, err := s.pc.CreateAnswer(nil)
		if err != nil {
			s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
			return
		}
		if err := s.pc.SetLocalDescription(answer); err != nil {
			s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
			return
		}
		s.sendSignalLocked(signalPayload{Type: "answer", SDP: answer.SDP})

	case "answer":
		desc := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: p.SDP}
		if err := s.pc.SetRemoteDescription(desc); err != nil {
			s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
			return
		}
		s.remoteSet = true
		s.flushPendingLocked()

	case "candidate":
		if p.Candidate != nil {
			s.addCandidateLocked(*p.Candidate)
		}
	}
}

// addCandidateLocked buffers candidates that arrive before the remote
// description and applies the rest immediately.
func (s *Session) addCandidateLocked(init webrtc.ICECandidateInit) {
	if !s.remoteSet || s.pc == nil {
		s.pending = append(s.pending, init)
		return
	}
	if err := s.pc.AddICECandidate(init); err != nil {
		s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
	}
}

func (s *Session) flushPendingLocked() {
	for _, init := range s.pending {
		if err := s.pc.AddICECandidate(init); err != nil {
			s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
		}
	}
	s.pending = nil
}

func (s *Session) sendSignalLocked(p signalPayload) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.signaler.Signal(raw); err != nil {
		s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
	}
}

// onNegotiationNeeded runs a single-flight renegotiation over the
// encrypted channel. It only ever applies once the secure channel exists;
// the initial handshake goes through the relay instead.
func (s *Session) onNegotiationNeeded(pc *webrtc.PeerConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.pc != pc || s.state != domain.ConnChat || s.renegotiate {
		return
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
		return
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		s.emitLocked(domain.Event{Kind: domain.EventError, Err: err})
		return
	}
	raw, err := json.Marshal(offer)
	if err != nil {
		return
	}
	s.renegotiate = true
	s.sendControlLocked(control.Renegotiate(raw))
}

// teardownTransportLocked drops the current transport without touching
// room membership or key material. Closing happens off the lock since
// pion callbacks may be waiting on it.
func (s *Session) teardownTransportLocked() {
	s.stopTimersLocked()
	pc, dc := s.pc, s.dc
	s.pc, s.dc = nil, nil
	s.remoteSet = false
	s.pending = nil
	s.renegotiate = false
	if pc == nil && dc == nil {
		return
	}
	go func() {
		if dc != nil {
			_ = dc.Close()
		}
		if pc != nil {
			_ = pc.Close()
		}
	}()
}
