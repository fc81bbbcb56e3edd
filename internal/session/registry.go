// Package session tracks authenticated admin sessions as opaque random
// tokens. A token exists in the backing store iff the session is valid.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"beacon/internal/constants"
)

// Registry issues, validates and revokes session tokens.
type Registry struct {
	store StoreInterface
}

func NewRegistry(store StoreInterface) *Registry {
	return &Registry{store: store}
}

// Issue generates a fresh crypto-random token, records it as valid and
// returns its printable form.
func (r *Registry) Issue() (string, error) {
	buf := make([]byte, constants.AuthTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	token := base64.StdEncoding.EncodeToString(buf)
	r.store.Save(token)
	return token, nil
}

// IsValid reports whether token belongs to a live session.
func (r *Registry) IsValid(token string) bool {
	if token == "" {
		return false
	}
	return r.store.Valid(token)
}

// Revoke ends the session for token. Revoking an unknown token is a no-op.
func (r *Registry) Revoke(token string) {
	r.store.Delete(token)
}

func (r *Registry) Close() error {
	return r.store.Close()
}
