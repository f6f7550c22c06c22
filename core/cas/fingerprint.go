// Package cas computes content fingerprints of serialized documents.
// Every fingerprint carries both a SHA-256 and a BLAKE3 digest so either
// can be used to address the same bytes.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"github.com/zeebo/blake3"
)

// Digest holds the SHA-256 and BLAKE3 digests of one blob, hex encoded.
type Digest struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// hexPattern matches a lowercase 256-bit hex digest.
var hexPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Fingerprint computes both digests of data.
func Fingerprint(data []byte) Digest {
	return Digest{SHA256: Hash(data), BLAKE3: Blake3Hash(data)}
}

// Hash computes the SHA-256 hash of data.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Blake3Hash computes the BLAKE3 hash of data.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether data hashes to d. Empty digest fields are not
// compared, but at least one must be set.
func (d Digest) Matches(data []byte) bool {
	if d.SHA256 == "" && d.BLAKE3 == "" {
		return false
	}
	if d.SHA256 != "" && d.SHA256 != Hash(data) {
		return false
	}
	return d.BLAKE3 == "" || d.BLAKE3 == Blake3Hash(data)
}

// Valid reports whether every set field is a well-formed digest.
func (d Digest) Valid() bool {
	for _, h := range []string{d.SHA256, d.BLAKE3} {
		if h != "" && !hexPattern.MatchString(h) {
			return false
		}
	}
	return d.SHA256 != "" || d.BLAKE3 != ""
}

func (d Digest) String() string {
	return "blake3:" + d.BLAKE3 + " sha256:" + d.SHA256
}
