package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"ghostchat/internal/domain"
	"ghostchat/internal/protocol/cipher"
	"ghostchat/internal/relay"
)

var (
	// ErrChannelClosed means the peer transport dropped and stayed down
	// through the disconnect grace period.
	ErrChannelClosed = errors.New("peer channel closed")
	// ErrConnectTimeout means no data channel opened within the connect
	// window.
	ErrConnectTimeout = errors.New("peer connection timed out")
	// ErrNotInChat means a send was attempted before the secure channel
	// was established.
	ErrNotInChat = errors.New("secure channel not established")
	// ErrNoHandle means Rejoin found no usable stored handle.
	ErrNoHandle = errors.New("no stored session handle")
)

const (
	connectTimeout  = 30 * time.Second
	disconnectGrace = 5 * time.Second
	eventBuffer     = 32
)

// Config carries the session's collaborators and knobs.
type Config struct {
	// Privacy forces relay-only ICE and suppresses non-relay candidates.
	Privacy bool

	// STUNURLs seed the ICE server list. A sensible public default is
	// used when empty.
	STUNURLs []string

	// TURN, when set, is asked for relay credentials before each
	// handshake. Required in practice for privacy mode.
	TURN domain.TURNProvider

	// Handles, when set, persists the rejoin handle across restarts.
	Handles domain.HandleStore
}

// Session is the single owner of one secure peer session. All state
// mutation is serialized behind one mutex; transport callbacks, the relay
// event loop, and the public methods all funnel through it.
type Session struct {
	cfg      Config
	signaler domain.Signaler
	engine   *cipher.Engine
	events   chan domain.Event

	mu           sync.Mutex
	state        domain.ConnState
	callState    domain.CallState
	role         domain.Role
	roomID       domain.RoomID
	pc           *webrtc.PeerConnection
	dc           *webrtc.DataChannel
	pending      []webrtc.ICECandidateInit
	remoteSet    bool
	keySent      bool
	renegotiate  bool
	graceTimer   *time.Timer
	connectTimer *time.Timer
	closed       bool
	eventsClosed bool
}

// New wires a session around the given signaler. The session owns the
// signaler from here on and closes it when the session ends.
func New(signaler domain.Signaler, cfg Config) (*Session, error) {
	engine, err := cipher.New()
	if err != nil {
		return nil, fmt.Errorf("creating cipher engine: %w", err)
	}
	return &Session{
		cfg:       cfg,
		signaler:  signaler,
		engine:    engine,
		events:    make(chan domain.Event, eventBuffer),
		state:     domain.ConnIdle,
		callState: domain.CallIdle,
	}, nil
}

// Events yields the session's ordered event stream. The channel closes
// after EventClosed.
func (s *Session) Events() <-chan domain.Event {
	return s.events
}

// State returns the current connection state.
func (s *Session) State() domain.ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CallState returns the current call overlay state.
func (s *Session) CallState() domain.CallState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callState
}

// Fingerprint returns the safety number once keys are derived.
func (s *Session) Fingerprint() (domain.Fingerprint, error) {
	return s.engine.Fingerprint()
}

// RoomID returns the current room id, empty before one is assigned.
func (s *Session) RoomID() domain.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Host connects to the relay and creates a fresh room. The invite id
// arrives as EventRoomReady.
func (s *Session) Host(ctx context.Context) error {
	if err := s.signaler.Connect(ctx); err != nil {
		return err
	}
	go s.run()
	return s.signaler.CreateRoom()
}

// Join connects to the relay and joins an existing room by invite id.
func (s *Session) Join(ctx context.Context, roomID domain.RoomID) error {
	if err := s.signaler.Connect(ctx); err != nil {
		return err
	}
	go s.run()
	return s.signaler.JoinRoom(roomID)
}

// Rejoin re-enters the room recorded in the handle store, if the handle
// is still within its window.
func (s *Session) Rejoin(ctx context.Context) error {
	if s.cfg.Handles == nil {
		return ErrNoHandle
	}
	h, ok, err := s.cfg.Handles.LoadHandle()
	if err != nil {
		return fmt.Errorf("loading handle: %w", err)
	}
	if !ok {
		return ErrNoHandle
	}
	role := domain.RoleGuest
	if h.IsHost {
		role = domain.RoleHost
	}
	if err := s.signaler.Connect(ctx); err != nil {
		return err
	}
	go s.run()
	return s.signaler.RejoinRoom(h.RoomID, role)
}

// run pumps relay frames into the state machine until the signaler's
// stream ends, then closes the session.
func (s *Session) run() {
	for msg := range s.signaler.Events() {
		s.handleSignal(msg)
	}
	_ = s.Close()
}

// handleSignal is the single entry point for relay traffic.
func (s *Session) handleSignal(msg domain.SignalMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	switch msg.Type {
	case domain.SignalRoomCreated:
		s.roomID = msg.RoomID
		s.role = domain.RoleHost
		s.state = domain.ConnRoomPending
		s.saveHandleLocked()
		s.emitLocked(domain.Event{Kind: domain.EventRoomReady, RoomID: s.roomID})

	case domain.SignalRoomJoined:
		s.roomID = msg.RoomID
		s.role = domain.RoleGuest
		s.state = domain.ConnRoomPending
		s.saveHandleLocked()
		s.emitLocked(domain.Event{Kind: domain.EventRoomReady, RoomID: s.roomID})

	case domain.SignalRejoinOK:
		s.roomID = msg.RoomID
		s.state = domain.ConnRoomPending
		s.saveHandleLocked()
		s.emitLocked(domain.Event{Kind: domain.EventRoomReady, RoomID: s.roomID})

	case domain.SignalPeerJoined:
		s.startHandshakeLocked()

	case domain.SignalPeerLeft:
		s.teardownTransportLocked()
		s.state = domain.ConnRoomPending
		s.emitLocked(domain.Event{Kind: domain.EventPeerLeft, RoomID: s.roomID})

	case domain.SignalRelay:
		s.handleRemoteSignalLocked(msg.Data)

	case domain.SignalError:
		// Relay protocol errors end room membership; close out.
		s.emitLocked(domain.Event{Kind: domain.EventError, Err: relay.ProtocolError(msg.Message)})
		go func() { _ = s.Close() }()
	}
}

// saveHandleLocked records the rejoin handle, if a store is configured.
func (s *Session) saveHandleLocked() {
	if s.cfg.Handles == nil || s.roomID == "" {
		return
	}
	_ = s.cfg.Handles.SaveHandle(domain.Handle{
		RoomID: s.roomID,
		IsHost: s.role == domain.RoleHost,
		TS:     time.Now().UnixMilli(),
	})
}

// Leave ends the session and forgets the rejoin handle.
func (s *Session) Leave() error {
	if s.cfg.Handles != nil {
		_ = s.cfg.Handles.ClearHandle()
	}
	return s.Close()
}

// Close tears the session down: timers cancelled, key material zeroed,
// transport and relay connection closed. Idempotent. The handle store is
// left alone so a restart can still rejoin.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.state = domain.ConnClosed
	s.callState = domain.CallIdle
	s.stopTimersLocked()
	pc, dc := s.pc, s.dc
	s.pc, s.dc = nil, nil
	s.mu.Unlock()

	s.engine.Destroy()
	if dc != nil {
		_ = dc.Close()
	}
	if pc != nil {
		_ = pc.Close()
	}
	_ = s.signaler.LeaveRoom()
	err := s.signaler.Close()

	s.mu.Lock()
	s.emitLocked(domain.Event{Kind: domain.EventClosed})
	s.eventsClosed = true
	close(s.events)
	s.mu.Unlock()
	return err
}

// fail surfaces a fatal error and closes the session.
func (s *Session) fail(err error) {
	s.emit(domain.Event{Kind: domain.EventError, Err: err})
	_ = s.Close()
}

func (s *Session) stopTimersLocked() {
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}
}

func (s *Session) emit(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(ev)
}

// emitLocked delivers an event without blocking; a full buffer drops the
// event rather than stalling transport callbacks.
func (s *Session) emitLocked(ev domain.Event) {
	if s.eventsClosed {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}
