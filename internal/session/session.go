// Package session holds server-side authenticated state keyed by an
// opaque client-held token. The permission set stored in a session is a
// snapshot taken at login time; grant changes take effect at the next
// login, not before. That staleness is the intended model.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/francesco74/sonde/internal/domain"

	"github.com/google/uuid"
)

// State is everything a request needs to act on behalf of a logged-in
// user without re-querying grants.
type State struct {
	UserID      int64                `json:"user_id"`
	Username    string               `json:"username"`
	Permissions domain.PermissionSet `json:"permissions"`
}

// Store creates, resolves and destroys sessions. Implementations are safe
// for concurrent use by different requests.
type Store interface {
	// Create stores the state and returns the token to hand to the
	// client.
	Create(ctx context.Context, state State) (string, error)

	// Lookup resolves a token. A missing, expired or tampered token
	// returns ok=false with no error.
	Lookup(ctx context.Context, token string) (State, bool, error)

	// Destroy removes the session. Destroying an unknown token is not an
	// error.
	Destroy(ctx context.Context, token string) error
}

// Tokens are "<id>.<tag>" where the tag is an HMAC-SHA256 of the id keyed
// with the configured session secret. A bad tag is rejected before the
// backend is consulted.

func newToken(secret string) (token, id string) {
	id = uuid.NewString()
	return id + "." + sign(secret, id), id
}

func tokenID(secret, token string) (string, bool) {
	i := strings.LastIndexByte(token, '.')
	if i <= 0 || i == len(token)-1 {
		return "", false
	}
	id, tag := token[:i], token[i+1:]
	if !hmac.Equal([]byte(tag), []byte(sign(secret, id))) {
		return "", false
	}
	return id, true
}

func sign(secret, id string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}
