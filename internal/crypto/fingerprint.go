package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"ghostchat/internal/domain"
)

// Fingerprint derives the shared safety number for a key pair. Both peers
// compute the same value regardless of argument order: the raw points are
// sorted lexicographically before hashing.
//
// Format: SHA-256 over the sorted concatenation, first 16 bytes, hex,
// uppercased, in 8 space-separated groups of 4.
func Fingerprint(a, b domain.PublicKey) domain.Fingerprint {
	first, second := a, b
	if bytes.Compare(a.Slice(), b.Slice()) > 0 {
		first, second = b, a
	}

	material := make([]byte, 0, 2*domain.PublicKeySize)
	material = append(material, first.Slice()...)
	material = append(material, second.Slice()...)
	sum := sha256.Sum256(material)

	digits := strings.ToUpper(hex.EncodeToString(sum[:16]))
	groups := make([]string, 0, len(digits)/4)
	for i := 0; i < len(digits); i += 4 {
		groups = append(groups, digits[i:i+4])
	}
	return domain.Fingerprint(strings.Join(groups, " "))
}
