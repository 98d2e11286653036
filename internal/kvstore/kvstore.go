// Package kvstore is the durable back end of the application: a synchronous
// string-keyed key-value store holding JSON blobs. The key layout is fixed:
// the account registry, the current-session marker, and one pair of keys per
// tenant partition.
package kvstore

const (
	// AccountsKey holds the serialized array of all registered accounts.
	AccountsKey = "biz_users"
	// SessionKey holds the serialized session identity of whoever is
	// currently logged in. Absent while logged out.
	SessionKey = "biz_current_user"
)

// PartitionPrefix returns the key prefix of a tenant's isolated partition.
func PartitionPrefix(ownerID string) string {
	return "owner_" + ownerID + "_"
}

// ProductsKey returns the key of a tenant's serialized product collection.
func ProductsKey(ownerID string) string {
	return PartitionPrefix(ownerID) + "products"
}

// SalesKey returns the key of a tenant's serialized sales log.
func SalesKey(ownerID string) string {
	return PartitionPrefix(ownerID) + "sales"
}

// Entry describes a stored blob without its contents.
type Entry struct {
	Key  string `json:"key"`
	Size int    `json:"size"`
}

// Store is a synchronous key-value store. Get reports ok=false for an
// absent key; Delete of an absent key is not an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Keys(prefix string) ([]Entry, error)
}
