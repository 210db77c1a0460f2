package crypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"

	"ghostchat/internal/domain"
)

// ErrInvalidKeyData means a peer public key failed to decode or was not a
// valid point on the curve.
var ErrInvalidKeyData = errors.New("invalid public key data")

// GenerateP256 returns a fresh ephemeral P-256 key-agreement pair. The
// private half is never serialized; it lives only inside the session.
func GenerateP256() (*ecdh.PrivateKey, domain.PublicKey, error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, domain.PublicKey{}, err
	}
	var pub domain.PublicKey
	copy(pub[:], priv.PublicKey().Bytes())
	return priv, pub, nil
}

// ExportPublicKey serializes pub for transport: the 65-byte uncompressed
// point, base64-encoded.
func ExportPublicKey(pub domain.PublicKey) string {
	return base64.StdEncoding.EncodeToString(pub.Slice())
}

// ImportPublicKey decodes a transported public key and validates it is a
// point on P-256. Any decode or validation failure is ErrInvalidKeyData.
func ImportPublicKey(encoded string) (domain.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != domain.PublicKeySize {
		return domain.PublicKey{}, ErrInvalidKeyData
	}
	if _, err := ecdh.P256().NewPublicKey(raw); err != nil {
		return domain.PublicKey{}, ErrInvalidKeyData
	}
	var pub domain.PublicKey
	copy(pub[:], raw)
	return pub, nil
}

// SharedSecret computes the ECDH shared secret between our private key
// and the peer's public point.
func SharedSecret(priv *ecdh.PrivateKey, peer domain.PublicKey) ([]byte, error) {
	pub, err := ecdh.P256().NewPublicKey(peer.Slice())
	if err != nil {
		return nil, ErrInvalidKeyData
	}
	return priv.ECDH(pub)
}
