// Package kv holds the string key-value media that back the local store.
//
// A Medium behaves like browser local storage: whole string values under
// string keys, no transactions and no change notification.
package kv

// Medium is a flat string key-value store.
type Medium interface {
	// Get returns the value under key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}
