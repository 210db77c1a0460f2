package crypto_test

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"ghostchat/internal/crypto"
)

func TestPadUnpadRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte("hello"),
		[]byte("こんにちは世界 🔒"),
		bytes.Repeat([]byte("a"), 255),
		bytes.Repeat([]byte("a"), 256),
		bytes.Repeat([]byte("x"), 7000),
	}
	for _, in := range cases {
		padded, err := crypto.PadMessage(in)
		if err != nil {
			t.Fatalf("PadMessage(%d bytes): %v", len(in), err)
		}
		if len(padded)%256 != 0 {
			t.Fatalf("padded length %d not a multiple of 256", len(padded))
		}
		out, err := crypto.UnpadMessage(padded)
		if err != nil {
			t.Fatalf("UnpadMessage: %v", err)
		}
		if !bytes.Equal(in, out) {
			t.Fatalf("round trip mismatch for %d-byte input", len(in))
		}
	}
}

func TestPadMessageTooLong(t *testing.T) {
	// 7500 raw bytes encode to 10000 base64 characters, one past the cap.
	in := bytes.Repeat([]byte("a"), 7500)
	if n := base64.StdEncoding.EncodedLen(len(in)); n <= 9999 {
		t.Fatalf("test input too small: encodes to %d", n)
	}
	if _, err := crypto.PadMessage(in); err != crypto.ErrMessageTooLong {
		t.Fatalf("want ErrMessageTooLong, got %v", err)
	}
}

func TestUnpadMessageRejectsMalformed(t *testing.T) {
	good, err := crypto.PadMessage([]byte("ok"))
	if err != nil {
		t.Fatalf("PadMessage: %v", err)
	}

	cases := map[string]string{
		"empty":            "",
		"short":            "000",
		"not block sized":  good + "x",
		"non-digit prefix": "00x1" + strings.Repeat("A", 252),
		"length past end":  "9999" + strings.Repeat("A", 252),
		"bad base64 body":  "0004~~~~" + strings.Repeat("A", 248),
	}
	for name, in := range cases {
		if _, err := crypto.UnpadMessage(in); err != crypto.ErrInvalidPaddedMessage {
			t.Errorf("%s: want ErrInvalidPaddedMessage, got %v", name, err)
		}
	}
}
