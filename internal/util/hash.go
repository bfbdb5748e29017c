package util

import (
	"crypto/sha256"
	"encoding/hex"
)

func SHA256Hex(b []byte) string {
	x := sha256.Sum256(b)
	return hex.EncodeToString(x[:])
}

// QueryFingerprint is a short stable digest of user text, safe to log and to
// store in audit rows in place of the text itself.
func QueryFingerprint(s string) string {
	return SHA256Hex([]byte(s))[:16]
}
