package crypto_test

import (
	"bytes"
	"encoding/base64"
	"regexp"
	"testing"

	"ghostchat/internal/crypto"
	"ghostchat/internal/domain"
)

// makePair generates a fresh P-256 pair for tests.
func makePair(t *testing.T) domain.PublicKey {
	t.Helper()
	_, pub, err := crypto.GenerateP256()
	if err != nil {
		t.Fatalf("GenerateP256: %v", err)
	}
	return pub
}

func TestExportImportPublicKey(t *testing.T) {
	pub := makePair(t)
	if pub[0] != 0x04 {
		t.Fatalf("want uncompressed point prefix 0x04, got %#x", pub[0])
	}
	got, err := crypto.ImportPublicKey(crypto.ExportPublicKey(pub))
	if err != nil {
		t.Fatalf("ImportPublicKey: %v", err)
	}
	if got != pub {
		t.Fatal("import did not round-trip export")
	}
}

func TestImportPublicKeyRejectsInvalid(t *testing.T) {
	offCurve := make([]byte, domain.PublicKeySize)
	offCurve[0] = 0x04
	for i := 1; i < len(offCurve); i++ {
		offCurve[i] = 0xFF
	}

	cases := map[string]string{
		"not base64":     "!!!not-base64!!!",
		"wrong length":   base64.StdEncoding.EncodeToString([]byte("short")),
		"off-curve":      base64.StdEncoding.EncodeToString(offCurve),
		"all zero point": base64.StdEncoding.EncodeToString(make([]byte, domain.PublicKeySize)),
	}
	for name, in := range cases {
		if _, err := crypto.ImportPublicKey(in); err != crypto.ErrInvalidKeyData {
			t.Errorf("%s: want ErrInvalidKeyData, got %v", name, err)
		}
	}
}

func TestSharedSecretAgreement(t *testing.T) {
	aPriv, aPub, err := crypto.GenerateP256()
	if err != nil {
		t.Fatalf("GenerateP256: %v", err)
	}
	bPriv, bPub, err := crypto.GenerateP256()
	if err != nil {
		t.Fatalf("GenerateP256: %v", err)
	}

	ab, err := crypto.SharedSecret(aPriv, bPub)
	if err != nil {
		t.Fatalf("SharedSecret: %v", err)
	}
	ba, err := crypto.SharedSecret(bPriv, aPub)
	if err != nil {
		t.Fatalf("SharedSecret: %v", err)
	}
	if !bytes.Equal(ab, ba) {
		t.Fatal("ECDH secrets disagree")
	}
}

var fingerprintFormat = regexp.MustCompile(`^([0-9A-F]{4} ){7}[0-9A-F]{4}$`)

func TestFingerprintSymmetryAndFormat(t *testing.T) {
	a := makePair(t)
	b := makePair(t)

	fp := crypto.Fingerprint(a, b)
	if fp != crypto.Fingerprint(b, a) {
		t.Fatal("fingerprint depends on argument order")
	}
	if !fingerprintFormat.MatchString(fp.String()) {
		t.Fatalf("bad fingerprint format: %q", fp)
	}

	c := makePair(t)
	if crypto.Fingerprint(a, c) == fp {
		t.Fatal("distinct key pairs produced identical fingerprints")
	}
}
