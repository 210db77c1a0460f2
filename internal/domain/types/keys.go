package types

// PublicKeySize is the length of an uncompressed P-256 point,
// 0x04 || X(32) || Y(32).
const PublicKeySize = 65

// PublicKey is a P-256 key-agreement public key in uncompressed form.
type PublicKey [PublicKeySize]byte

// Slice returns the key as a []byte.
func (p PublicKey) Slice() []byte { return p[:] }

// IsZero reports whether the key has never been set.
func (p PublicKey) IsZero() bool {
	for _, b := range p {
		if b != 0 {
			return false
		}
	}
	return true
}
