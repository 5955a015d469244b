package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Prefix marks every issued key so tokens are recognizable in config files
// and audit trails without revealing anything about them.
const Prefix = "cerb_"

// Key is a bearer credential scoped to one tenant. A nil ProjectID grants
// tenant-wide scope; a non-nil value restricts the key to that project.
// The raw token is shown once at issue time; only its hash is stored.
type Key struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Generate returns a fresh raw token and its storage hash.
func Generate() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generating key material: %w", err)
	}
	raw = Prefix + hex.EncodeToString(buf)
	return raw, Hash(raw), nil
}

// Hash returns the SHA-256 hex digest under which a token is stored.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
