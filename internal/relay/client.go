package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ghostchat/internal/domain"
)

// ErrReconnectExhausted means the relay socket stayed down through every
// backoff attempt.
var ErrReconnectExhausted = errors.New("relay reconnect attempts exhausted")

// ErrNotConnected means a send was attempted before Connect or after Close.
var ErrNotConnected = errors.New("relay not connected")

const writeTimeout = 10 * time.Second

// Client is the websocket signaling client. It implements domain.Signaler.
type Client struct {
	base string // http(s) base, e.g. https://relay.example.com

	mu     sync.Mutex
	conn   *websocket.Conn
	roomID domain.RoomID
	role   domain.Role

	events chan domain.SignalMessage
	done   chan struct{}
	closed bool
}

var _ domain.Signaler = (*Client)(nil)

// New returns a client for the relay at base, e.g. "http://127.0.0.1:8080".
func New(base string) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		events: make(chan domain.SignalMessage, 16),
		done:   make(chan struct{}),
	}
}

// Connect dials the relay websocket and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	wsEndpoint, err := wsURL(c.base)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsEndpoint, nil)
	if err != nil {
		return fmt.Errorf("dialing relay: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// CreateRoom asks the relay to mint a fresh room with us as host.
func (c *Client) CreateRoom() error {
	c.setRole(domain.RoleHost)
	return c.send(domain.SignalMessage{Type: domain.SignalCreateRoom})
}

// JoinRoom consumes the one-time invite for roomID.
func (c *Client) JoinRoom(roomID domain.RoomID) error {
	c.setRole(domain.RoleGuest)
	return c.send(domain.SignalMessage{Type: domain.SignalJoinRoom, RoomID: roomID})
}

// RejoinRoom re-enters a surviving room without consuming the invite.
func (c *Client) RejoinRoom(roomID domain.RoomID, role domain.Role) error {
	c.mu.Lock()
	c.roomID = roomID
	c.role = role
	c.mu.Unlock()
	return c.send(domain.SignalMessage{Type: domain.SignalRejoinRoom, RoomID: roomID, Role: role})
}

// LeaveRoom exits the current room and forgets it, so a later socket loss
// no longer triggers rejoin.
func (c *Client) LeaveRoom() error {
	c.mu.Lock()
	c.roomID = ""
	c.mu.Unlock()
	return c.send(domain.SignalMessage{Type: domain.SignalLeaveRoom})
}

// Signal relays opaque handshake data to the other peer in our room.
func (c *Client) Signal(data json.RawMessage) error {
	return c.send(domain.SignalMessage{Type: domain.SignalRelay, Data: data})
}

// Events yields every frame the relay pushes. Closed when the connection
// is gone for good.
func (c *Client) Events() <-chan domain.SignalMessage {
	return c.events
}

// Close tears the socket down and stops any reconnect loop.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// --- internals ---

func (c *Client) setRole(role domain.Role) {
	c.mu.Lock()
	c.role = role
	c.mu.Unlock()
}

func (c *Client) send(msg domain.SignalMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.conn == nil {
		return ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

// readLoop forwards relay frames to the event channel, tracking the room
// id the server assigns so a reconnect can rejoin it.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var msg domain.SignalMessage
		if err := conn.ReadJSON(&msg); err != nil {
			c.onSocketLost(conn)
			return
		}

		switch msg.Type {
		case domain.SignalRoomCreated, domain.SignalRoomJoined, domain.SignalRejoinOK:
			c.mu.Lock()
			c.roomID = msg.RoomID
			c.mu.Unlock()
		}

		select {
		case c.events <- msg:
		case <-c.done:
			return
		}
	}
}

// onSocketLost decides between a clean shutdown and a reconnect cycle.
func (c *Client) onSocketLost(conn *websocket.Conn) {
	conn.Close()

	c.mu.Lock()
	closed := c.closed
	roomID := c.roomID
	role := c.role
	c.mu.Unlock()

	if closed || roomID == "" {
		// Nothing to rejoin: end the stream.
		c.finish(nil)
		return
	}
	c.reconnect(roomID, role)
}

// reconnect retries the relay with exponential backoff and replays the
// rejoin-room once a socket is up again.
func (c *Client) reconnect(roomID domain.RoomID, role domain.Role) {
	wsEndpoint, err := wsURL(c.base)
	if err != nil {
		c.finish(err)
		return
	}

	for attempt := 1; attempt <= MaxReconnectAttempts; attempt++ {
		timer := time.NewTimer(BackoffDelay(attempt))
		select {
		case <-c.done:
			timer.Stop()
			c.finish(nil)
			return
		case <-timer.C:
		}

		conn, _, err := websocket.DefaultDialer.Dial(wsEndpoint, nil)
		if err != nil {
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			c.finish(nil)
			return
		}
		c.conn = conn
		c.mu.Unlock()

		if err := c.RejoinRoom(roomID, role); err != nil {
			conn.Close()
			continue
		}
		go c.readLoop(conn)
		return
	}
	c.finish(ErrReconnectExhausted)
}

// finish emits a final error frame if any and closes the event stream.
func (c *Client) finish(err error) {
	if err != nil {
		select {
		case c.events <- domain.SignalMessage{Type: domain.SignalError, Message: err.Error()}:
		default:
		}
	}
	close(c.events)
}

// wsURL converts the http(s) base URL into its /ws websocket endpoint.
func wsURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("relay url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("relay url: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}
