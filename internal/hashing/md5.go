// Package hashing provides the server's message digest primitive.
package hashing

import (
	"crypto/md5"
	"encoding/hex"
)

// Digest computes the 32-character lowercase hexadecimal MD5 digest of msg.
// It is pure, reentrant and holds no state between calls.
func Digest(msg string) string {
	sum := md5.Sum([]byte(msg))
	return hex.EncodeToString(sum[:])
}
