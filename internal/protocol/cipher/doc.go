// Package cipher implements the end-to-end encryption engine for one
// session: P-256 key agreement, directional AES-256-GCM keys derived with
// HKDF-SHA256, length-hiding padding, replay protection, and one-way key
// rotation every 50 messages for forward secrecy.
//
// An Engine is single-owner. Its methods serialize internally, so the
// data-channel handler and the control dispatcher may share one instance,
// but counters and the replay cache are not meant for wider sharing.
package cipher
