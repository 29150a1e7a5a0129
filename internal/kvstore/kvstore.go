package kvstore

import (
	"encoding/json"
	"fmt"
)

// Store is the minimal persisted key-value contract shared by all state
// stores. Implementations must be safe for use from multiple goroutines.
type Store interface {
	// Get returns the stored value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close releases any underlying resources.
	Close() error
}

// GetJSON loads the value for key and unmarshals it into out. It returns
// false when the key is absent. A malformed stored value is reported as an
// error so callers can decide to fall back to defaults.
func GetJSON(s Store, key string, out any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil {
		return false, fmt.Errorf("getting %q: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decoding %q: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	if err := s.Set(key, string(data)); err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}
