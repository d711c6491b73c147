package shared

import "context"

// KeyValueStore persists client state across runs, the way a browser keeps
// values in local storage. Implementations scope keys to a namespace.
type KeyValueStore interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys; missing keys are ignored
	Delete(ctx context.Context, keys ...string) error

	// Clear removes every key in the namespace
	Clear(ctx context.Context) error

	// Close releases resources held by the store
	Close() error
}

// Well-known storage keys
const (
	StorageKeyToken    = "token"
	StorageKeyTenantID = "tenant_id"
	StorageKeyUserID   = "user_id"
	StorageKeyRole     = "rol"
	StorageKeyCart     = "cart"
)
