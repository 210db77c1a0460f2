// Package signaling implements the relay server: a stateless room
// registry and message relay that lets two peers exchange handshake
// payloads before their direct transport exists.
//
// The relay never inspects message content beyond the type tag and keeps
// no state outside process memory. Rooms hold at most two peers behind a
// 384-bit random id and a one-time invite flag; empty rooms survive ten
// minutes for rejoin, then a background sweep evicts them. Room-mutating
// operations are rate limited per source address.
package signaling
