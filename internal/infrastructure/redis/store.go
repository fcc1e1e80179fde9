package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kugather/signup-verification/internal/core/ports"
)

// getDelScript reads and deletes a key in one server-side step. GETDEL would
// do the same but needs Redis >= 6.2; the script runs on any version.
var getDelScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v then
	redis.call('DEL', KEYS[1])
end
return v
`)

// hsetIfExistsScript updates a hash field only while the hash is alive, so an
// expired session is never resurrected as a key without TTL.
var hsetIfExistsScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
	return 1
end
return 0
`)

var errNonPositiveTTL = errors.New("store: ttl must be positive")

// Store implements ports.KeyValueStore on Redis.
type Store struct {
	r      redis.Cmdable
	prefix string
}

// NewStore creates a Redis-backed store; prefix namespaces every key.
func NewStore(r redis.Cmdable, prefix string) *Store {
	return &Store{r: r, prefix: prefix}
}

var _ ports.KeyValueStore = (*Store)(nil)

func (s *Store) namespaced(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *Store) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return errNonPositiveTTL
	}
	if err := s.r.Set(ctx, s.namespaced(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.r.Get(ctx, s.namespaced(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) GetAndDelete(ctx context.Context, key string) (string, bool, error) {
	res, err := getDelScript.Run(ctx, s.r, []string{s.namespaced(key)}).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis getdel %s: %w", key, err)
	}
	v, ok := res.(string)
	if !ok {
		return "", false, fmt.Errorf("redis getdel %s: unexpected result type %T", key, res)
	}
	return v, true, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.r.Del(ctx, s.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *Store) HashSetWithTTL(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if ttl <= 0 {
		return errNonPositiveTTL
	}
	if len(fields) == 0 {
		return fmt.Errorf("redis hset %s: no fields", key)
	}
	ns := s.namespaced(key)
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	// replace any previous hash and set the expiry in one MULTI block
	pipe := s.r.TxPipeline()
	pipe.Del(ctx, ns)
	pipe.HSet(ctx, ns, values)
	pipe.PExpire(ctx, ns, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

func (s *Store) HashGetAll(ctx context.Context, key string) (map[string]string, bool, error) {
	fields, err := s.r.HGetAll(ctx, s.namespaced(key)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}
	return fields, true, nil
}

func (s *Store) HashSetIfExists(ctx context.Context, key, field, value string) (bool, error) {
	n, err := hsetIfExistsScript.Run(ctx, s.r, []string{s.namespaced(key)}, field, value).Int()
	if err != nil {
		return false, fmt.Errorf("redis hset-if-exists %s: %w", key, err)
	}
	return n == 1, nil
}
