package domain

import (
	interfaces "ghostchat/internal/domain/interfaces"
	types "ghostchat/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	RoomID          = types.RoomID
	Role            = types.Role
	Fingerprint     = types.Fingerprint
	PublicKey       = types.PublicKey
	SignalType      = types.SignalType
	SignalMessage   = types.SignalMessage
	TURNCredentials = types.TURNCredentials
	ConnState       = types.ConnState
	CallState       = types.CallState
	Handle          = types.Handle
	EventKind       = types.EventKind
	Event           = types.Event
	ChannelEnvelope = types.ChannelEnvelope
)

// Constant re-exports so callers can stay on the domain package.
const (
	RoleHost  = types.RoleHost
	RoleGuest = types.RoleGuest

	PublicKeySize = types.PublicKeySize

	SignalCreateRoom  = types.SignalCreateRoom
	SignalRoomCreated = types.SignalRoomCreated
	SignalJoinRoom    = types.SignalJoinRoom
	SignalRoomJoined  = types.SignalRoomJoined
	SignalRejoinRoom  = types.SignalRejoinRoom
	SignalRejoinOK    = types.SignalRejoinOK
	SignalPeerJoined  = types.SignalPeerJoined
	SignalPeerLeft    = types.SignalPeerLeft
	SignalRelay       = types.SignalRelay
	SignalLeaveRoom   = types.SignalLeaveRoom
	SignalError       = types.SignalError

	ConnIdle            = types.ConnIdle
	ConnRoomPending     = types.ConnRoomPending
	ConnConnecting      = types.ConnConnecting
	ConnDataChannelOpen = types.ConnDataChannelOpen
	ConnChat            = types.ConnChat
	ConnClosed          = types.ConnClosed

	CallIdle    = types.CallIdle
	CallDialing = types.CallDialing
	CallRinging = types.CallRinging
	CallActive  = types.CallActive

	EventRoomReady           = types.EventRoomReady
	EventConnected           = types.EventConnected
	EventSecurityEstablished = types.EventSecurityEstablished
	EventMessage             = types.EventMessage
	EventAck                 = types.EventAck
	EventPeerLeft            = types.EventPeerLeft
	EventCallIncoming        = types.EventCallIncoming
	EventCallAnswered        = types.EventCallAnswered
	EventCallEnded           = types.EventCallEnded
	EventSecurityAlert       = types.EventSecurityAlert
	EventError               = types.EventError
	EventClosed              = types.EventClosed

	EnvelopeKeyExchange = types.EnvelopeKeyExchange
	EnvelopeEncrypted   = types.EnvelopeEncrypted

	HandleTTLMillis = types.HandleTTLMillis
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	Signaler     = interfaces.Signaler
	TURNProvider = interfaces.TURNProvider
	HandleStore  = interfaces.HandleStore
)
