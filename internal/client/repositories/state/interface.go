package state

import (
	"context"
)

// Well-known keys stored in the state table.
const (
	KeyBadgeNumber  = "badge_number"
	KeySalt         = "salt"
	KeyVerifier     = "verifier"
	KeyDeviceID     = "device_id"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyLastSyncAt   = "last_sync_at"
)

// Repository is a small key/value store for device-local state such as
// credentials and sync bookkeeping.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
