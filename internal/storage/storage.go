// Package storage persists the client-side session keys. It plays the role
// browser local storage plays for the web front end.
package storage

import "context"

// Persisted keys.
const (
	KeyToken          = "token"
	KeyRefreshToken   = "refresh_token"
	KeyUser           = "user"
	KeyOnboardingSeen = "onboarding_seen"
)

// SessionKeys are cleared on logout and on 401. The onboarding flag is not
// part of the session.
var SessionKeys = []string{KeyToken, KeyRefreshToken, KeyUser}

// Storage is a small string key/value store. SetMany must be atomic: either
// every key is written or none is.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}
