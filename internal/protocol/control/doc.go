// Package control defines the typed messages multiplexed with chat text
// over the encrypted channel: renegotiation offers, call signaling,
// security alerts, and delivery acks.
//
// Chat text is untyped; a decrypted payload is treated as control only
// when it parses as a JSON object carrying a recognized "type" tag.
package control
