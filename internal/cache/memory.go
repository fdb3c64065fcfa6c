package cache

import (
	"context"

	"github.com/bluele/gcache"
	"github.com/pkg/errors"
)

const defaultMemorySize = 100_000

// Memory is an in-process LRU store. It is mainly useful for one-shot
// runs and tests; nothing survives the process.
type Memory struct {
	c gcache.Cache
}

// NewMemory creates an in-memory store holding up to size entries.
// A non-positive size selects a default large enough for a full
// generation run (one entry per fetched page).
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = defaultMemorySize
	}
	return &Memory{c: gcache.New(size).LRU().Build()}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	v, err := m.c.Get(key)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return Entry{}, false, nil
		}
		return Entry{}, false, errors.Wrap(err, "memory cache get")
	}
	entry, ok := v.(Entry)
	if !ok {
		return Entry{}, false, errors.Errorf("memory cache holds %T for key %q", v, key)
	}
	return entry, true, nil
}

func (m *Memory) Set(_ context.Context, key string, entry Entry) error {
	if err := m.c.Set(key, entry); err != nil {
		return errors.Wrap(err, "memory cache set")
	}
	return nil
}
