// Package crypto wraps the primitives the cipher engine is built from:
// P-256 key-agreement pairs, public key export/import as uncompressed
// points, length-hiding message padding, and safety-number fingerprints.
//
// Nothing here holds session state; the stateful protocol lives in
// internal/protocol/cipher.
package crypto
