// Package integrity provides BLAKE3 checksums for pipeline artifacts so a
// written table can be verified against its manifest.
package integrity

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Checksum computes the BLAKE3 hash of data as a hex string.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ChecksumFile computes the BLAKE3 hash of a file's contents as a hex string.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for checksum: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyFile recomputes a file's checksum and compares it to expected.
func VerifyFile(path, expected string) (bool, error) {
	actual, err := ChecksumFile(path)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}
