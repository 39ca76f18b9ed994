package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// OIDPrefix prefixes every tile content hash stored in pointer records.
const OIDPrefix = "sha256:"

// Calculator is an interface for computing tile content hashes.
// This abstraction allows tests to substitute a canned implementation.
type Calculator interface {
	// HashFile returns the oid ("sha256:<hex>") and byte size of the file.
	HashFile(path string) (oid string, size int64, err error)

	// HashBytes returns the oid of in-memory content.
	HashBytes(content []byte) string
}

// SHA256 implements Calculator using streaming SHA-256.
//
// SHA256 is a zero-size type and is safe for concurrent use by multiple goroutines.
// Using value semantics (pass by value) eliminates heap allocations.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
// Returns by value to avoid heap allocation (SHA256 is a zero-size type).
func New() SHA256 {
	return SHA256{}
}

// HashFile computes the oid and byte size of the file at path without
// reading it fully into memory.
func (SHA256) HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	return OIDPrefix + hex.EncodeToString(h.Sum(nil)), size, nil
}

// HashBytes computes the oid of in-memory content.
func (SHA256) HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return OIDPrefix + hex.EncodeToString(sum[:])
}
