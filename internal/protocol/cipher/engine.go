package cipher

import (
	"bytes"
	"crypto/aes"
	aescipher "crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"

	"ghostchat/internal/crypto"
	"ghostchat/internal/domain"
	"ghostchat/internal/util/memzero"
)

const (
	keySize   = 32
	nonceSize = 12

	// rotateEvery is the PFS rotation period in messages, per direction.
	rotateEvery = 50
	// previousKeyLimit bounds the retired receive-key ring, keeping the
	// multi-key decryption fallback deterministic in cost.
	previousKeyLimit = 2

	// replayWindow is how long a seen nonce stays in the cache.
	replayWindow = 5 * time.Minute
	// maxMessageAge rejects messages whose embedded timestamp is older.
	maxMessageAge = 300_000 // milliseconds
	// counterWindow rejects messages whose counter lags the peer's
	// highest seen counter by more than this.
	counterWindow = 100

	derivationSalt    = "ghost-chat-v1"
	infoFirstToSecond = "ghost-first-to-second"
	infoSecondToFirst = "ghost-second-to-first"
	rotationSalt      = "ghost-pfs-rotation"
	rotationInfo      = "key-rotation"
)

var (
	// ErrKeysNotReady means key material required for the operation is
	// missing: no peer key imported yet, or the engine was destroyed.
	ErrKeysNotReady = errors.New("shared keys not derived")
	// ErrKeyConflict means both parties presented bit-identical public
	// keys, which breaks the deterministic direction assignment. Honest
	// key generation can never produce this.
	ErrKeyConflict = errors.New("identical public keys")
	// ErrInvalidCiphertext means the transported blob is too short or not
	// decodable.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	// ErrReplayAttack means the nonce was already accepted within the
	// replay window.
	ErrReplayAttack = errors.New("replayed nonce")
	// ErrDecryptionFailed means no current or retired key opened the
	// message.
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrMessageTooOld means the authenticated timestamp exceeds the
	// allowed age.
	ErrMessageTooOld = errors.New("message too old")
	// ErrCounterTooOld means the authenticated counter is behind the
	// replay window.
	ErrCounterTooOld = errors.New("message counter too old")
)

// metadata is the authenticated wrapper around every plaintext.
type metadata struct {
	M string `json:"m"`
	T int64  `json:"t"`
	C uint64 `json:"c"`
}

// Engine holds all cryptographic state for one session.
type Engine struct {
	mu sync.Mutex

	priv    *ecdh.PrivateKey
	pub     domain.PublicKey
	peer    domain.PublicKey
	peerSet bool

	sendKey  []byte
	recvKey  []byte
	prevRecv [][]byte // retired receive keys, newest first

	counter     uint64 // incremented before each encryption
	peerCounter uint64 // highest counter seen from the peer
	lastRecv    uint64 // counter of the last successfully opened message

	seen map[string]time.Time // nonce (base64) -> first seen

	now       func() time.Time
	destroyed bool
}

// New generates a fresh ephemeral key pair and returns an engine with no
// peer yet.
func New() (*Engine, error) {
	priv, pub, err := crypto.GenerateP256()
	if err != nil {
		return nil, err
	}
	return &Engine{
		priv: priv,
		pub:  pub,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}, nil
}

// PublicKey returns our uncompressed public point.
func (e *Engine) PublicKey() domain.PublicKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pub
}

// ExportPublicKey returns our public key in transport form.
func (e *Engine) ExportPublicKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return crypto.ExportPublicKey(e.pub)
}

// ImportPeerKey validates and installs the peer's transported public key.
// The peer key is immutable once set.
func (e *Engine) ImportPeerKey(encoded string) error {
	pub, err := crypto.ImportPublicKey(encoded)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrKeysNotReady
	}
	e.peer = pub
	e.peerSet = true
	return nil
}

// DeriveSharedKeys runs ECDH and installs the two directional keys.
//
// Direction is decided without negotiation: the raw public keys are
// compared byte-by-byte, and the lexicographically smaller party sends
// with the first-to-second key. Both sides reach the same assignment
// independently.
func (e *Engine) DeriveSharedKeys() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || e.priv == nil || !e.peerSet {
		return ErrKeysNotReady
	}

	cmp := bytes.Compare(e.pub.Slice(), e.peer.Slice())
	if cmp == 0 {
		return ErrKeyConflict
	}

	secret, err := crypto.SharedSecret(e.priv, e.peer)
	if err != nil {
		return err
	}
	defer memzero.Zero(secret)

	firstToSecond, err := deriveKey(secret, derivationSalt, infoFirstToSecond)
	if err != nil {
		return err
	}
	secondToFirst, err := deriveKey(secret, derivationSalt, infoSecondToFirst)
	if err != nil {
		return err
	}

	if cmp < 0 {
		e.sendKey, e.recvKey = firstToSecond, secondToFirst
	} else {
		e.sendKey, e.recvKey = secondToFirst, firstToSecond
	}
	return nil
}

// Ready reports whether directional keys exist and messages can flow.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.destroyed && e.sendKey != nil && e.recvKey != nil
}

// Counter returns the counter carried by the most recently sent message.
// Callers correlate acknowledgements against it.
func (e *Engine) Counter() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counter
}

// LastReceivedCounter returns the counter carried by the most recently
// opened peer message, or zero when none carried one. It is what an
// acknowledgement should echo back.
func (e *Engine) LastReceivedCounter() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRecv
}

// Fingerprint returns the safety number for this session's key pair.
func (e *Engine) Fingerprint() (domain.Fingerprint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || !e.peerSet {
		return "", ErrKeysNotReady
	}
	return crypto.Fingerprint(e.pub, e.peer), nil
}

// Encrypt seals plaintext into a transportable base64 blob:
// base64(nonce || ciphertext || tag). The message counter is incremented
// first and travels inside the authenticated metadata; when it hits a
// rotation boundary the send key is rotated after sealing, so the message
// itself still uses the pre-rotation key.
func (e *Engine) Encrypt(plaintext string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || e.sendKey == nil {
		return "", ErrKeysNotReady
	}

	e.counter++
	meta, err := json.Marshal(metadata{
		M: plaintext,
		T: e.now().UnixMilli(),
		C: e.counter,
	})
	if err != nil {
		return "", err
	}

	padded, err := crypto.PadMessage(meta)
	if err != nil {
		return "", err
	}

	aead, err := newAEAD(e.sendKey)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(padded), nil)

	if e.counter%rotateEvery == 0 {
		e.rotateSendKey()
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a transported blob and returns the plaintext.
//
// The nonce is checked against the replay cache before any key is tried.
// Opening is attempted with the current receive key, then each retired
// key newest to oldest. The authenticated metadata is then checked for
// age and counter freshness. A payload that does not parse as metadata is
// returned verbatim; this tolerates plain payloads at the cost of
// skipping the staleness checks for them.
func (e *Engine) Decrypt(encoded string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || e.recvKey == nil {
		return "", ErrKeysNotReady
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) <= nonceSize {
		return "", ErrInvalidCiphertext
	}
	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	nonceID := base64.StdEncoding.EncodeToString(nonce)

	now := e.now()
	e.purgeReplayCache(now)
	if _, dup := e.seen[nonceID]; dup {
		return "", ErrReplayAttack
	}

	padded, ok := e.open(nonce, sealed)
	if !ok {
		return "", ErrDecryptionFailed
	}
	payload, err := crypto.UnpadMessage(string(padded))
	if err != nil {
		return "", err
	}

	var meta metadata
	if err := json.Unmarshal(payload, &meta); err != nil || meta.T == 0 {
		// Legacy plain payload: no metadata to validate.
		e.seen[nonceID] = now
		return string(payload), nil
	}

	if now.UnixMilli()-meta.T > maxMessageAge {
		return "", ErrMessageTooOld
	}
	if e.peerCounter >= counterWindow && meta.C <= e.peerCounter-counterWindow {
		return "", ErrCounterTooOld
	}

	if meta.C > e.peerCounter {
		e.peerCounter = meta.C
	}
	e.lastRecv = meta.C
	e.seen[nonceID] = now
	if meta.C > 0 && meta.C%rotateEvery == 0 {
		e.rotateRecvKey()
	}
	return meta.M, nil
}

// Destroy zeroes and drops all key material, counters, and caches. It is
// idempotent and safe to call from any state.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	memzero.Zero(e.sendKey)
	memzero.Zero(e.recvKey)
	for _, k := range e.prevRecv {
		memzero.Zero(k)
	}
	e.sendKey, e.recvKey, e.prevRecv = nil, nil, nil
	e.priv = nil
	e.pub = domain.PublicKey{}
	e.peer = domain.PublicKey{}
	e.peerSet = false
	e.counter, e.peerCounter = 0, 0
	e.seen = nil
	e.destroyed = true
}

// --- helpers ---

// open tries the current receive key first, then the retired ring newest
// to oldest.
func (e *Engine) open(nonce, sealed []byte) ([]byte, bool) {
	keys := append([][]byte{e.recvKey}, e.prevRecv...)
	for _, key := range keys {
		aead, err := newAEAD(key)
		if err != nil {
			continue
		}
		if pt, err := aead.Open(nil, nonce, sealed, nil); err == nil {
			return pt, true
		}
	}
	return nil, false
}

func (e *Engine) purgeReplayCache(now time.Time) {
	for id, at := range e.seen {
		if now.Sub(at) > replayWindow {
			delete(e.seen, id)
		}
	}
}

// rotateSendKey replaces the send key with its one-way successor.
func (e *Engine) rotateSendKey() {
	next := rotateKey(e.sendKey)
	memzero.Zero(e.sendKey)
	e.sendKey = next
}

// rotateRecvKey retires the current receive key into the ring before
// installing its successor, so messages sealed just before the boundary
// can still be opened.
func (e *Engine) rotateRecvKey() {
	next := rotateKey(e.recvKey)
	e.prevRecv = append([][]byte{e.recvKey}, e.prevRecv...)
	if len(e.prevRecv) > previousKeyLimit {
		last := e.prevRecv[len(e.prevRecv)-1]
		memzero.Zero(last)
		e.prevRecv = e.prevRecv[:previousKeyLimit]
	}
	e.recvKey = next
}

// rotateKey derives the successor of old: HKDF over SHA-256(old), so the
// old key cannot be recovered from the new one.
func rotateKey(old []byte) []byte {
	ikm := sha256.Sum256(old)
	r := hkdf.New(sha256.New, ikm[:], []byte(rotationSalt), []byte(rotationInfo))
	next := make([]byte, keySize)
	_, _ = io.ReadFull(r, next)
	return next
}

func deriveKey(secret []byte, salt, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, []byte(salt), []byte(info))
	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

func newAEAD(key []byte) (aescipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return aescipher.NewGCM(block)
}
