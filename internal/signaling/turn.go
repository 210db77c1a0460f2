package signaling

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"ghostchat/internal/domain"
)

const turnDefaultTTL = time.Hour

// mintTURNCredentials builds ephemeral TURN credentials per the REST
// credential convention: the username carries its own expiry, and the
// credential is an HMAC-SHA1 over it with the shared TURN secret, so the
// TURN server can verify without any lookup.
func mintTURNCredentials(secret string, urls []string, ttl time.Duration) (domain.TURNCredentials, error) {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return domain.TURNCredentials{}, err
	}
	username := fmt.Sprintf("%d:%s", time.Now().Add(ttl).Unix(), hex.EncodeToString(nonce))

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(username))

	return domain.TURNCredentials{
		Username:   username,
		Credential: base64.StdEncoding.EncodeToString(mac.Sum(nil)),
		TTL:        int64(ttl / time.Second),
		URLs:       urls,
	}, nil
}
