package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// DigestLength is the length in hex characters of a token digest
// (SHA-256, so 32 bytes / 64 hex chars).
const DigestLength = sha256.Size * 2

// ErrEmptyToken reports an attempt to hash an empty credential.
var ErrEmptyToken = errors.New("cryptox: cannot hash empty token")

// HashToken computes the salted digest of a raw credential: lowercase
// hex of SHA-256(raw || salt). The digest is deterministic so it can be
// stored and matched against later presentations of the same credential.
func HashToken(raw, salt string) (string, error) {
	if raw == "" {
		return "", ErrEmptyToken
	}

	sum := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(sum[:]), nil
}

// CompareDigests reports whether two digests match. Length is checked
// first; mismatched lengths compare false without touching the bytes.
// The byte comparison itself is constant-time so an attacker cannot
// learn where two digests first differ.
func CompareDigests(a, b string) bool {
	if len(a) != len(b) || a == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// VerifyToken hashes raw with salt and compares the result against the
// stored digest. Any hashing failure is a non-match, never a panic.
func VerifyToken(raw, storedDigest, salt string) bool {
	digest, err := HashToken(raw, salt)
	if err != nil {
		return false
	}
	return CompareDigests(digest, storedDigest)
}

// GenerateSalt returns n cryptographically secure random bytes as a hex
// string. Returns an error if n is not positive or the RNG fails.
func GenerateSalt(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("cryptox: salt size must be positive, got %d", n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IsValidDigest reports whether s has the exact shape of a token digest:
// DigestLength lowercase hex characters.
func IsValidDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// BatchItem is one entry of a batch hashing result. Err is nil for
// successes; failed entries keep their original index so callers can
// correlate back to the input slice.
type BatchItem struct {
	Index  int
	Digest string
	Err    error
}

// HashTokens hashes every credential in raws with the same salt and
// partitions the results. One bad input never aborts the batch.
func HashTokens(raws []string, salt string) (succeeded, failed []BatchItem) {
	for i, raw := range raws {
		digest, err := HashToken(raw, salt)
		if err != nil {
			failed = append(failed, BatchItem{Index: i, Err: err})
			continue
		}
		succeeded = append(succeeded, BatchItem{Index: i, Digest: digest})
	}
	return succeeded, failed
}
