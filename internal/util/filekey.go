package util

import (
	"crypto/sha1"
	"fmt"
)

// HashKey returns the hex SHA1 of s.
// Cache keys for choices and processed files are built with it, so the
// output must stay stable across releases.
func HashKey(s string) string {
	h := sha1.New()
	h.Write([]byte(s))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// FileKey returns the key a processed file is remembered under
func FileKey(path string) string {
	return HashKey(path)
}
