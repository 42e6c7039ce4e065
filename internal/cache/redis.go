package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// RedisConfig configures the Redis-backed cache store.
type RedisConfig struct {
	// Addr is the Redis server address, e.g. "localhost:6379".
	Addr      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// DefaultRedisConfig returns the configuration used when only an address is
// known.
func DefaultRedisConfig(addr string) RedisConfig {
	return RedisConfig{
		Addr:      addr,
		KeyPrefix: "bookkeeper:",
	}
}

// RedisStore implements Store on top of Redis. All operations run behind a
// circuit breaker: once Redis fails repeatedly the breaker opens and calls
// return immediately with an error, which callers treat as a miss.
type RedisStore struct {
	client rueidis.Client
	cb     *gobreaker.CircuitBreaker
	prefix string
}

// NewRedisStore connects to Redis and wraps the connection with a circuit
// breaker tripping after five consecutive failures.
func NewRedisStore(cfg RedisConfig, log zerolog.Logger) (*RedisStore, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.Addr},
		Username:    cfg.Username,
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "redis-cache",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Cache circuit breaker state changed")
		},
	})

	return &RedisStore{client: client, cb: cb, prefix: cfg.KeyPrefix}, nil
}

// Get implements Store. Returns ErrMiss for absent keys.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.cb.Execute(func() (interface{}, error) {
		resp := s.client.Do(ctx, s.client.B().Get().Key(s.prefix+key).Build())
		b, err := resp.AsBytes()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				return nil, ErrMiss
			}
			return nil, fmt.Errorf("redis get %s: %w", key, err)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		cmd := s.client.B().Set().Key(s.prefix + key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
		if err := s.client.Do(ctx, cmd).Error(); err != nil {
			return nil, fmt.Errorf("redis set %s: %w", key, err)
		}
		return nil, nil
	})
	return err
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.prefix + k
	}
	_, err := s.cb.Execute(func() (interface{}, error) {
		if err := s.client.Do(ctx, s.client.B().Del().Key(prefixed...).Build()).Error(); err != nil {
			return nil, fmt.Errorf("redis del: %w", err)
		}
		return nil, nil
	})
	return err
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	s.client.Close()
	return nil
}
