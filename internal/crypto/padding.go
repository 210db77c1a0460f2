package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
)

const (
	// padBlock is the size every padded message is rounded up to, hiding
	// the true plaintext length from traffic observers.
	padBlock = 256
	// lenPrefix is the number of decimal digits prepended to the padded
	// string, which caps the base64 payload at 9999 characters.
	lenPrefix     = 4
	maxEncodedLen = 9999
)

var (
	// ErrMessageTooLong means the base64 payload exceeds the 4-digit
	// length prefix.
	ErrMessageTooLong = errors.New("message too long to pad")
	// ErrInvalidPaddedMessage means the padded string failed a length or
	// format check during unpadding.
	ErrInvalidPaddedMessage = errors.New("invalid padded message")
)

const padAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// PadMessage base64-encodes payload, prefixes the 4-digit encoded length,
// and fills with random alphanumerics up to the next multiple of 256.
func PadMessage(payload []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(payload)
	if len(encoded) > maxEncodedLen {
		return "", ErrMessageTooLong
	}
	s := fmt.Sprintf("%0*d", lenPrefix, len(encoded)) + encoded
	rem := len(s) % padBlock
	if rem == 0 {
		return s, nil
	}
	fill, err := randAlphanumeric(padBlock - rem)
	if err != nil {
		return "", err
	}
	return s + fill, nil
}

// UnpadMessage reverses PadMessage: it reads the 4-digit prefix, slices
// exactly that many base64 characters, and decodes them.
func UnpadMessage(padded string) ([]byte, error) {
	if len(padded) < lenPrefix || len(padded)%padBlock != 0 {
		return nil, ErrInvalidPaddedMessage
	}
	n, err := strconv.Atoi(padded[:lenPrefix])
	if err != nil || n < 0 || lenPrefix+n > len(padded) {
		return nil, ErrInvalidPaddedMessage
	}
	payload, err := base64.StdEncoding.DecodeString(padded[lenPrefix : lenPrefix+n])
	if err != nil {
		return nil, ErrInvalidPaddedMessage
	}
	return payload, nil
}

// randAlphanumeric returns n cryptographically random characters from the
// padding alphabet.
func randAlphanumeric(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range raw {
		out[i] = padAlphabet[int(b)%len(padAlphabet)]
	}
	return string(out), nil
}
