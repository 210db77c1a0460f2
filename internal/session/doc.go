// Package session drives one secure peer session end to end.
//
// It owns the connection state machine: room membership on the relay, the
// WebRTC peer transport with trickle ICE, the clear key-exchange handshake
// on the data channel, and the encrypted chat/control traffic after keys
// are derived. Consumers receive a single ordered event stream and call
// back in through Send and the call methods.
package session
