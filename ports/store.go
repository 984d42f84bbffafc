package ports

import (
	"context"
	"time"
)

// CredentialStore is a TTL-aware key-value store. The session manager keeps
// the wallet credential in it so the user is not re-challenged on every
// reload; the ledger service keeps challenge nonces in it. Missing keys
// return core.ErrNotFound.
type CredentialStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
