package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
)

// masterSecretBytes is the size of a freshly generated master secret.
const masterSecretBytes = 32

// LoadMasterSecret reads the process-wide master secret from file,
// generating and persisting a new one on first run. The secret is never
// derived from any credential; it exists so digests cannot be
// precomputed offline.
func LoadMasterSecret(file string) (string, error) {
	file = filepath.Clean(file)
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return "", fmt.Errorf("cryptox: create secret dir: %w", err)
	}

	if _, err := os.Stat(file); os.IsNotExist(err) {
		buf := make([]byte, masterSecretBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("cryptox: generate master secret: %w", err)
		}
		secret := hex.EncodeToString(buf)

		if err := os.WriteFile(file, []byte(secret), 0600); err != nil {
			return "", fmt.Errorf("cryptox: persist master secret: %w", err)
		}
		return secret, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("cryptox: read master secret: %w", err)
	}
	return string(data), nil
}

// DeriveSalt expands the master secret into a purpose-bound salt via
// HKDF-SHA256. Distinct purposes ("token-digest", "refresh-digest", ...)
// yield independent salts from the one stored secret, so rotating a
// purpose never requires touching the master file.
func DeriveSalt(master, purpose string) (string, error) {
	if master == "" {
		return "", fmt.Errorf("cryptox: master secret is empty")
	}

	r := hkdf.New(sha256.New, []byte(master), nil, []byte(purpose))
	out := make([]byte, masterSecretBytes)
	if _, err := io.ReadFull(r, out); err != nil {
		return "", fmt.Errorf("cryptox: derive salt: %w", err)
	}
	return hex.EncodeToString(out), nil
}
