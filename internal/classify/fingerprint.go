package classify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Algorithm names a fingerprint hash function.
type Algorithm string

const (
	// AlgorithmSHA256 is the default fingerprint algorithm.
	AlgorithmSHA256 Algorithm = "sha256"

	// AlgorithmSHA3_256 hashes with SHA3-256 instead.
	AlgorithmSHA3_256 Algorithm = "sha3-256"
)

// Fingerprint returns the hex-encoded SHA-256 digest of the UTF-8 bytes of text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Fingerprinter computes content fingerprints with a fixed algorithm.
type Fingerprinter struct {
	algorithm Algorithm
	sum       func([]byte) [32]byte
}

// NewFingerprinter returns a Fingerprinter for the named algorithm.
// An empty name selects SHA-256.
func NewFingerprinter(algorithm Algorithm) (*Fingerprinter, error) {
	switch algorithm {
	case "", AlgorithmSHA256:
		return &Fingerprinter{algorithm: AlgorithmSHA256, sum: sha256.Sum256}, nil
	case AlgorithmSHA3_256:
		return &Fingerprinter{algorithm: AlgorithmSHA3_256, sum: sha3.Sum256}, nil
	default:
		return nil, fmt.Errorf("unsupported fingerprint algorithm %q", algorithm)
	}
}

// Algorithm returns the algorithm in use.
func (f *Fingerprinter) Algorithm() Algorithm {
	return f.algorithm
}

// Fingerprint returns the hex-encoded digest of the UTF-8 bytes of text.
func (f *Fingerprinter) Fingerprint(text string) string {
	sum := f.sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
