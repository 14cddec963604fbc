package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a SHA-256 content hash.
type Digest [32]byte

// Sum hashes data.
func Sum(data []byte) Digest {
	return sha256.Sum256(data)
}

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// String returns the first 12 hex digits, enough to tell builds apart in logs.
func (d Digest) String() string {
	return hex.EncodeToString(d[:6])
}
