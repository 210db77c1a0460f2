package signaling

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ghostchat/internal/domain"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 70 * time.Second
	pingPeriod   = 30 * time.Second
	sweepPeriod  = 10 * time.Second
	maxFrameSize = 64 << 10
)

// Config holds the relay's runtime options.
type Config struct {
	// TURNSecret is the shared secret of the TURN server; empty disables
	// the credential endpoint (clients degrade to direct-only ICE).
	TURNSecret string
	TURNURLs   []string
	TURNTTL    time.Duration
}

// Server is the signaling relay. One instance serves many rooms; all
// registry mutation is serialized by a single mutex, which is plenty at
// two peers per room.
type Server struct {
	cfg      Config
	log      *zap.Logger
	upgrader websocket.Upgrader
	limiter  *addressLimiter

	mu    sync.Mutex
	rooms map[domain.RoomID]*room

	done      chan struct{}
	closeOnce sync.Once
}

// New builds a relay server and starts its background sweep.
func New(cfg Config, log *zap.Logger) *Server {
	if cfg.TURNTTL == 0 {
		cfg.TURNTTL = turnDefaultTTL
	}
	s := &Server{
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The relay is origin-agnostic: room ids are the capability.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		limiter: newAddressLimiter(),
		rooms:   make(map[domain.RoomID]*room),
		done:    make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Handler returns the HTTP mux serving /ws and /api/turn-credentials.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/turn-credentials", s.handleTURN)
	return mux
}

// Close stops the sweep and disconnects every peer.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.rooms {
		for _, p := range r.peers {
			p.disconnect()
		}
		delete(s.rooms, id)
	}
}

// --- connection handling ---

// peer is one live websocket connection.
type peer struct {
	id     string
	addr   string
	conn   *websocket.Conn
	send   chan domain.SignalMessage
	roomID domain.RoomID

	closeOnce sync.Once
}

// disconnect force-closes the socket; the read pump then unwinds.
func (p *peer) disconnect() {
	p.closeOnce.Do(func() { p.conn.Close() })
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	p := &peer{
		id:   uuid.NewString(),
		addr: sourceAddr(r),
		conn: conn,
		send: make(chan domain.SignalMessage, 16),
	}
	s.log.Info("peer connected", zap.String("peer", p.id))

	go s.writePump(p)
	s.readPump(p)
}

// readPump dispatches frames until the socket dies, then removes the
// peer from its room.
func (s *Server) readPump(p *peer) {
	defer func() {
		s.dropPeer(p)
		p.disconnect()
		close(p.send)
		s.log.Info("peer disconnected", zap.String("peer", p.id))
	}()

	p.conn.SetReadLimit(maxFrameSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg domain.SignalMessage
		if err := p.conn.ReadJSON(&msg); err != nil {
			return
		}
		s.dispatch(p, msg)
	}
}

// writePump owns all writes to the socket, interleaving queued frames
// with liveness pings. A peer that stops answering pings times out in
// the read pump and is dropped.
func (s *Server) writePump(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-p.send:
			if !ok {
				_ = p.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteJSON(msg); err != nil {
				p.disconnect()
				return
			}
		case <-ticker.C:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				p.disconnect()
				return
			}
		}
	}
}

func (s *Server) dispatch(p *peer, msg domain.SignalMessage) {
	switch msg.Type {
	case domain.SignalCreateRoom:
		s.handleCreateRoom(p)
	case domain.SignalJoinRoom:
		s.handleJoinRoom(p, msg.RoomID)
	case domain.SignalRejoinRoom:
		s.handleRejoinRoom(p, msg.RoomID, msg.Role)
	case domain.SignalRelay:
		s.handleSignal(p, msg.Data)
	case domain.SignalLeaveRoom:
		s.handleLeaveRoom(p)
	default:
		s.sendError(p, "unknown message type")
	}
}

// --- room operations (all under s.mu) ---

func (s *Server) handleCreateRoom(p *peer) {
	if !s.limiter.Allow(p.addr) {
		s.sendError(p, "rate limited")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPeerLocked(p)

	id, err := newRoomID()
	if err != nil {
		s.sendError(p, "internal error")
		return
	}
	s.rooms[id] = &room{
		id:        id,
		peers:     map[string]*peer{p.id: p},
		createdAt: time.Now(),
	}
	p.roomID = id
	s.queue(p, domain.SignalMessage{Type: domain.SignalRoomCreated, RoomID: id})
	s.log.Info("room created", zap.String("room", roomTag(id)))
}

func (s *Server) handleJoinRoom(p *peer, id domain.RoomID) {
	if !s.limiter.Allow(p.addr) {
		s.sendError(p, "rate limited")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPeerLocked(p)

	r, ok := s.rooms[id]
	if !ok {
		s.sendError(p, "room not found")
		return
	}
	if len(r.peers) >= maxRoomPeers {
		// A third joiner means the invite leaked. Treat the room as
		// compromised: drop everyone and delete it.
		s.destroyRoomLocked(r)
		s.sendError(p, "room full")
		s.log.Warn("room destroyed on third join", zap.String("room", roomTag(id)))
		return
	}
	if r.inviteUsed {
		s.sendError(p, "invite already used")
		return
	}

	r.peers[p.id] = p
	r.inviteUsed = true
	p.roomID = id

	s.queue(p, domain.SignalMessage{Type: domain.SignalRoomJoined, RoomID: id})
	for _, member := range r.peers {
		s.queue(member, domain.SignalMessage{Type: domain.SignalPeerJoined})
	}
	s.log.Info("room joined", zap.String("room", roomTag(id)))
}

func (s *Server) handleRejoinRoom(p *peer, id domain.RoomID, role domain.Role) {
	if !s.limiter.Allow(p.addr) {
		s.sendError(p, "rate limited")
		return
	}
	if !role.Valid() {
		s.sendError(p, "invalid role")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPeerLocked(p)

	r, ok := s.rooms[id]
	if !ok {
		s.sendError(p, "room not found")
		return
	}
	if len(r.peers) >= maxRoomPeers {
		s.sendError(p, "room full")
		return
	}

	r.peers[p.id] = p
	p.roomID = id
	s.queue(p, domain.SignalMessage{Type: domain.SignalRejoinOK, RoomID: id})

	// Once both sides are back, each restarts the handshake from scratch.
	if len(r.peers) == maxRoomPeers {
		for _, member := range r.peers {
			s.queue(member, domain.SignalMessage{Type: domain.SignalPeerJoined})
		}
	}
	s.log.Info("room rejoined", zap.String("room", roomTag(id)), zap.String("role", role.String()))
}

func (s *Server) handleSignal(p *peer, data json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.roomID == "" {
		return
	}
	r, ok := s.rooms[p.roomID]
	if !ok {
		return
	}
	if other := r.other(p); other != nil {
		s.queue(other, domain.SignalMessage{Type: domain.SignalRelay, Data: data})
	}
}

func (s *Server) handleLeaveRoom(p *peer) {
	s.dropPeer(p)
}

// dropPeer removes p from its room and notifies the remaining peer. The
// room itself survives until the sweep so the peer can rejoin.
func (s *Server) dropPeer(p *peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPeerLocked(p)
}

func (s *Server) dropPeerLocked(p *peer) {
	if p.roomID == "" {
		return
	}
	r, ok := s.rooms[p.roomID]
	p.roomID = ""
	if !ok {
		return
	}
	delete(r.peers, p.id)
	if other := r.other(p); other != nil {
		s.queue(other, domain.SignalMessage{Type: domain.SignalPeerLeft})
	}
}

// destroyRoomLocked disconnects every member and deletes the room.
// Callers hold s.mu.
func (s *Server) destroyRoomLocked(r *room) {
	for _, member := range r.peers {
		member.roomID = ""
		member.disconnect()
	}
	delete(s.rooms, r.id)
}

// queue hands a frame to the peer's write pump without blocking the
// registry; a peer too slow to drain its queue is cut off.
func (s *Server) queue(p *peer, msg domain.SignalMessage) {
	select {
	case p.send <- msg:
	default:
		s.log.Warn("peer send queue full, disconnecting", zap.String("peer", p.id))
		p.disconnect()
	}
}

func (s *Server) sendError(p *peer, text string) {
	s.queue(p, domain.SignalMessage{Type: domain.SignalError, Message: text})
}

// --- background sweep ---

func (s *Server) sweepLoop() {
	ticker := time.NewTicker(sweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Server) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.rooms {
		if r.expired(now) {
			delete(s.rooms, id)
			s.log.Info("room swept", zap.String("room", roomTag(id)))
		}
	}
}

// --- TURN credentials ---

func (s *Server) handleTURN(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.limiter.Allow(sourceAddr(r)) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}
	if s.cfg.TURNSecret == "" {
		http.Error(w, "turn not configured", http.StatusServiceUnavailable)
		return
	}

	creds, err := mintTURNCredentials(s.cfg.TURNSecret, s.cfg.TURNURLs, s.cfg.TURNTTL)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(creds)
}

// --- helpers ---

// sourceAddr keys rate limiting by the client host without the port.
func sourceAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// roomTag is a loggable prefix of a room id. Full ids never hit the logs:
// they are the capability that admits a peer.
func roomTag(id domain.RoomID) string {
	s := id.String()
	if len(s) > 8 {
		s = s[:8]
	}
	return s
}
