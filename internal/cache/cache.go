// Package cache provides the key/value store consulted by the Navitia
// fetch client. Entries are tagged so that "fetched and confirmed
// missing" is structurally distinct from "never fetched".
package cache

import (
	"context"
	"encoding/json"
)

// Entry is a single cached value. Exactly one of the two shapes is
// populated: a real payload, or a not-found marker carrying the HTTP
// status that produced it.
type Entry struct {
	Payload  json.RawMessage `json:"payload,omitempty"`
	NotFound bool            `json:"not_found,omitempty"`
	Status   int             `json:"status,omitempty"`
}

// PayloadEntry returns a payload entry.
func PayloadEntry(payload json.RawMessage) Entry {
	return Entry{Payload: payload}
}

// NotFoundEntry returns a not-found marker for the given HTTP status.
func NotFoundEntry(status int) Entry {
	return Entry{NotFound: true, Status: status}
}

// Store is the capability the fetch client depends on. Implementations
// must tolerate concurrent Get/Set; last write wins per key.
type Store interface {
	// Get returns the entry for key and whether one was present.
	Get(ctx context.Context, key string) (Entry, bool, error)
	// Set stores the entry under key, replacing any previous value.
	Set(ctx context.Context, key string, entry Entry) error
}
