// Package relay implements the client side of the signaling relay: a
// persistent websocket on /ws used to create, join, and rejoin rooms and
// to trickle opaque handshake payloads to the other peer, plus the HTTP
// fetch of short-lived TURN credentials.
//
// The client owns its socket. On socket loss while a room is still held
// it reconnects with exponential backoff (1s doubling, capped at 30s, up
// to 10 attempts) and replays a rejoin-room so the relay can pair the
// peers again; exhausting the attempts surfaces a fatal error event and
// closes the event stream.
package relay
