package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

// Redis is a store backed by a redis instance, so cached pages survive
// across scheduled runs and can be shared between processes. Entries are
// stored as JSON strings under their URL key.
type Redis struct {
	pool      *redis.Pool
	keyPrefix string
}

// NewRedisPool creates a connection pool for the given address with
// settings suited to a single batch worker.
func NewRedisPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// NewRedis wraps a pool as a Store. keyPrefix namespaces all keys so a
// shared redis instance can serve other tenants.
func NewRedis(pool *redis.Pool, keyPrefix string) *Redis {
	return &Redis{pool: pool, keyPrefix: keyPrefix}
}

func (r *Redis) Get(ctx context.Context, key string) (Entry, bool, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return Entry{}, false, errors.Wrap(err, "redis cache get")
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", r.keyPrefix+key))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, errors.Wrapf(err, "redis cache get %q", key)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, errors.Wrapf(err, "redis cache decode %q", key)
	}
	return entry, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrapf(err, "redis cache encode %q", key)
	}

	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return errors.Wrap(err, "redis cache set")
	}
	defer conn.Close()

	if _, err := conn.Do("SET", r.keyPrefix+key, data); err != nil {
		return errors.Wrapf(err, "redis cache set %q", key)
	}
	return nil
}
