package signaling

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestMintTURNCredentials(t *testing.T) {
	urls := []string{"turn:turn.example.com:3478"}
	creds, err := mintTURNCredentials("s3cret", urls, time.Hour)
	if err != nil {
		t.Fatalf("mintTURNCredentials: %v", err)
	}

	if creds.TTL != 3600 {
		t.Fatalf("ttl: want 3600, got %d", creds.TTL)
	}
	if len(creds.URLs) != 1 || creds.URLs[0] != urls[0] {
		t.Fatalf("urls: got %v", creds.URLs)
	}

	// Username is expiry:nonce with the expiry about an hour out.
	parts := strings.SplitN(creds.Username, ":", 2)
	if len(parts) != 2 {
		t.Fatalf("username format: %q", creds.Username)
	}
	expiry, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		t.Fatalf("username expiry: %v", err)
	}
	delta := expiry - time.Now().Unix()
	if delta < 3590 || delta > 3610 {
		t.Fatalf("expiry %d seconds out, want ~3600", delta)
	}

	// The credential must verify against the shared secret.
	mac := hmac.New(sha1.New, []byte("s3cret"))
	mac.Write([]byte(creds.Username))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if creds.Credential != want {
		t.Fatal("credential does not verify")
	}
}

func TestMintTURNCredentialsUniqueUsernames(t *testing.T) {
	a, err := mintTURNCredentials("s3cret", nil, time.Hour)
	if err != nil {
		t.Fatalf("mintTURNCredentials: %v", err)
	}
	b, err := mintTURNCredentials("s3cret", nil, time.Hour)
	if err != nil {
		t.Fatalf("mintTURNCredentials: %v", err)
	}
	if a.Username == b.Username {
		t.Fatal("nonce reuse across mints")
	}
}
