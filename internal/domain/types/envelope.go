package types

// Data channel envelope types. key-exchange is the single payload sent in
// the clear, before keys exist; everything after it is encrypted-message.
const (
	EnvelopeKeyExchange = "key-exchange"
	EnvelopeEncrypted   = "encrypted-message"
)

// ChannelEnvelope is the wire format on the peer data channel.
type ChannelEnvelope struct {
	Type      string `json:"type"`
	PublicKey string `json:"publicKey,omitempty"`
	Data      string `json:"data,omitempty"`
}
