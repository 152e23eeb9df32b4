package errcount

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the counters in a single hash, one field per domain.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (map[string]int, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", s.key, err)
	}

	counts := make(map[string]int, len(fields))
	for domain, raw := range fields {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			continue
		}
		counts[domain] = n
	}
	return counts, nil
}

// Save writes every domain in one transaction. Fields absent from counts
// are left alone.
func (s *RedisStore) Save(ctx context.Context, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}

	values := make(map[string]any, len(counts))
	for domain, n := range counts {
		values[domain] = n
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key, values)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("hset %s: %w", s.key, err)
	}
	return nil
}
