// Package storage provides durable key-value slots for serialized state.
package storage

// Provider stores opaque values under string keys. Get reports a missing
// key with apperr.ErrNotFound.
type Provider interface {
	Get(key string) ([]byte, error)
	// Put replaces the value under key atomically.
	Put(key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
