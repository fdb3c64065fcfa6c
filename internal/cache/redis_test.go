package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis"
	"github.com/fortytw2/leaktest"
)

func TestRedisStore(t *testing.T) {
	defer leaktest.Check(t)()

	s, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	pool := NewRedisPool(s.Addr())
	defer pool.Close()

	store := NewRedis(pool, "idfmcal:")
	ctx := context.Background()

	t.Run("should report absence for keys never set", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "missing")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("got a hit, want absent for a key that was never set")
		}
	})

	t.Run("should round-trip payload entries", func(t *testing.T) {
		payload := json.RawMessage(`{"pagination":{"total_result":3}}`)
		if err := store.Set(ctx, "https://example.test/lines?start_page=0&count=1000", PayloadEntry(payload)); err != nil {
			t.Fatal(err)
		}

		entry, ok, err := store.Get(ctx, "https://example.test/lines?start_page=0&count=1000")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("got absent, want a hit after Set")
		}
		if string(entry.Payload) != string(payload) {
			t.Errorf("got payload `%s`, want `%s`", entry.Payload, payload)
		}
	})

	t.Run("should round-trip not-found markers", func(t *testing.T) {
		if err := store.Set(ctx, "gone", NotFoundEntry(404)); err != nil {
			t.Fatal(err)
		}

		entry, ok, err := store.Get(ctx, "gone")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("got absent, want a hit for a stored marker")
		}
		if !entry.NotFound || entry.Status != 404 {
			t.Errorf("got (not_found=%v, status=%d), want (true, 404)", entry.NotFound, entry.Status)
		}
	})

	t.Run("should namespace keys with the prefix", func(t *testing.T) {
		if err := store.Set(ctx, "prefixed", PayloadEntry(json.RawMessage(`1`))); err != nil {
			t.Fatal(err)
		}
		if !s.Exists("idfmcal:prefixed") {
			t.Error("key was not stored under the idfmcal: prefix")
		}
	})
}
