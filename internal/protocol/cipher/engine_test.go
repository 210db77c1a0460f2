package cipher_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"ghostchat/internal/protocol/cipher"
)

// makeSessionPair returns two engines that have exchanged keys and
// derived their directional key sets.
func makeSessionPair(t *testing.T) (*cipher.Engine, *cipher.Engine) {
	t.Helper()
	a, err := cipher.New()
	if err != nil {
		t.Fatalf("cipher.New: %v", err)
	}
	b, err := cipher.New()
	if err != nil {
		t.Fatalf("cipher.New: %v", err)
	}
	if a.PublicKey() == b.PublicKey() {
		t.Fatal("independently generated key pairs are identical")
	}
	if err := a.ImportPeerKey(b.ExportPublicKey()); err != nil {
		t.Fatalf("ImportPeerKey: %v", err)
	}
	if err := b.ImportPeerKey(a.ExportPublicKey()); err != nil {
		t.Fatalf("ImportPeerKey: %v", err)
	}
	if err := a.DeriveSharedKeys(); err != nil {
		t.Fatalf("DeriveSharedKeys: %v", err)
	}
	if err := b.DeriveSharedKeys(); err != nil {
		t.Fatalf("DeriveSharedKeys: %v", err)
	}
	if !a.Ready() || !b.Ready() {
		t.Fatal("engines not ready after derivation")
	}
	return a, b
}

func TestRoundTripBothDirections(t *testing.T) {
	a, b := makeSessionPair(t)

	messages := []string{
		"",
		"hello, world",
		"こんにちは世界 🔐 mixed ascii",
		strings.Repeat("padding-block-crosser ", 300), // ~6.6 KB
	}
	for _, msg := range messages {
		ct, err := a.Encrypt(msg)
		if err != nil {
			t.Fatalf("Encrypt(%d bytes): %v", len(msg), err)
		}
		got, err := b.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != msg {
			t.Fatalf("a->b round trip mismatch for %d-byte message", len(msg))
		}

		// The reverse direction must use the complementary keys.
		ct, err = b.Encrypt(msg)
		if err != nil {
			t.Fatalf("Encrypt reverse: %v", err)
		}
		got, err = a.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt reverse: %v", err)
		}
		if got != msg {
			t.Fatalf("b->a round trip mismatch for %d-byte message", len(msg))
		}
	}
}

func TestEncryptDecryptRequireDerivedKeys(t *testing.T) {
	e, err := cipher.New()
	if err != nil {
		t.Fatalf("cipher.New: %v", err)
	}
	if _, err := e.Encrypt("x"); err != cipher.ErrKeysNotReady {
		t.Fatalf("Encrypt before derivation: want ErrKeysNotReady, got %v", err)
	}
	if _, err := e.Decrypt("x"); err != cipher.ErrKeysNotReady {
		t.Fatalf("Decrypt before derivation: want ErrKeysNotReady, got %v", err)
	}
	if err := e.DeriveSharedKeys(); err != cipher.ErrKeysNotReady {
		t.Fatalf("DeriveSharedKeys without peer: want ErrKeysNotReady, got %v", err)
	}
}

func TestReplayRejection(t *testing.T) {
	a, b := makeSessionPair(t)

	ct, err := a.Encrypt("once only")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := b.Decrypt(ct); err != nil {
		t.Fatalf("first Decrypt: %v", err)
	}
	if _, err := b.Decrypt(ct); err != cipher.ErrReplayAttack {
		t.Fatalf("second Decrypt: want ErrReplayAttack, got %v", err)
	}
}

func TestInvalidCiphertext(t *testing.T) {
	_, b := makeSessionPair(t)

	for name, in := range map[string]string{
		"not base64":  "!!!",
		"empty":       "",
		"nonce sized": "AAAAAAAAAAAAAAAA", // decodes to exactly 12 bytes
	} {
		if _, err := b.Decrypt(in); err != cipher.ErrInvalidCiphertext {
			t.Errorf("%s: want ErrInvalidCiphertext, got %v", name, err)
		}
	}
}

func TestTamperedCiphertextFails(t *testing.T) {
	a, b := makeSessionPair(t)

	ct, err := a.Encrypt("integrity")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	// Flip one character of the base64 body past the nonce.
	mutated := []byte(ct)
	i := len(mutated) / 2
	if mutated[i] == 'A' {
		mutated[i] = 'B'
	} else {
		mutated[i] = 'A'
	}
	if _, err := b.Decrypt(string(mutated)); err != cipher.ErrDecryptionFailed {
		t.Fatalf("want ErrDecryptionFailed, got %v", err)
	}
}

func TestRotationContinuity(t *testing.T) {
	a, b := makeSessionPair(t)

	// 55 messages straddle the rotation boundary at message 50.
	for i := 1; i <= 55; i++ {
		msg := fmt.Sprintf("message %d", i)
		ct, err := a.Encrypt(msg)
		if err != nil {
			t.Fatalf("Encrypt #%d: %v", i, err)
		}
		got, err := b.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt #%d: %v", i, err)
		}
		if got != msg {
			t.Fatalf("mismatch at message %d", i)
		}
	}

	// The reverse direction is unaffected by the forward rotation.
	ct, err := b.Encrypt("still fine")
	if err != nil {
		t.Fatalf("Encrypt reverse: %v", err)
	}
	if got, err := a.Decrypt(ct); err != nil || got != "still fine" {
		t.Fatalf("Decrypt reverse: got %q, %v", got, err)
	}
}

func TestOutOfOrderAcrossRotationBoundary(t *testing.T) {
	a, b := makeSessionPair(t)

	var held string
	for i := 1; i <= 50; i++ {
		ct, err := a.Encrypt(fmt.Sprintf("message %d", i))
		if err != nil {
			t.Fatalf("Encrypt #%d: %v", i, err)
		}
		if i == 49 {
			held = ct // delayed past the rotation trigger
			continue
		}
		if _, err := b.Decrypt(ct); err != nil {
			t.Fatalf("Decrypt #%d: %v", i, err)
		}
	}

	// Message 49 was sealed before the rotation that message 50
	// triggered; the retired-key ring must still open it.
	got, err := b.Decrypt(held)
	if err != nil {
		t.Fatalf("Decrypt delayed message: %v", err)
	}
	if got != "message 49" {
		t.Fatalf("delayed message mismatch: %q", got)
	}
}

func TestCounterTooOld(t *testing.T) {
	a, b := makeSessionPair(t)

	var first string
	for i := 1; i <= 101; i++ {
		ct, err := a.Encrypt(fmt.Sprintf("message %d", i))
		if err != nil {
			t.Fatalf("Encrypt #%d: %v", i, err)
		}
		if i == 1 {
			first = ct
			continue
		}
		if _, err := b.Decrypt(ct); err != nil {
			t.Fatalf("Decrypt #%d: %v", i, err)
		}
	}

	// Counter 1 is exactly at peerCounter-100 and must be rejected even
	// though its key is still in the retired ring and its tag is valid.
	if _, err := b.Decrypt(first); err != cipher.ErrCounterTooOld {
		t.Fatalf("want ErrCounterTooOld, got %v", err)
	}
}

func TestMessageTooOld(t *testing.T) {
	a, b := makeSessionPair(t)

	// Sender's clock is six minutes behind the receiver's.
	past := time.Now().Add(-6 * time.Minute)
	a.SetNow(func() time.Time { return past })

	ct, err := a.Encrypt("stale")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := b.Decrypt(ct); err != cipher.ErrMessageTooOld {
		t.Fatalf("want ErrMessageTooOld, got %v", err)
	}
}

func TestReplayCacheExpiry(t *testing.T) {
	a, b := makeSessionPair(t)

	ct, err := a.Encrypt("fresh")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := b.Decrypt(ct); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	// After the replay window passes the nonce entry is purged; the
	// replay then fails on the timestamp check instead.
	b.SetNow(func() time.Time { return time.Now().Add(6 * time.Minute) })
	if _, err := b.Decrypt(ct); err != cipher.ErrMessageTooOld {
		t.Fatalf("want ErrMessageTooOld after window, got %v", err)
	}
}

func TestFingerprintAgreement(t *testing.T) {
	a, b := makeSessionPair(t)

	fa, err := a.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fb, err := b.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fa != fb {
		t.Fatalf("fingerprints disagree: %q vs %q", fa, fb)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	a, b := makeSessionPair(t)

	a.Destroy()
	a.Destroy()
	if a.Ready() {
		t.Fatal("destroyed engine reports ready")
	}
	if _, err := a.Encrypt("x"); err != cipher.ErrKeysNotReady {
		t.Fatalf("Encrypt after Destroy: want ErrKeysNotReady, got %v", err)
	}
	if _, err := a.Fingerprint(); err != cipher.ErrKeysNotReady {
		t.Fatalf("Fingerprint after Destroy: want ErrKeysNotReady, got %v", err)
	}

	// The peer is unaffected until it destroys its own state.
	if !b.Ready() {
		t.Fatal("peer engine lost readiness")
	}
}
