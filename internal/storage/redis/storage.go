package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/storage"
)

var _ storage.Storage = (*Storage)(nil)

// Storage keeps backend sessions in Redis. Each save resets the key's TTL,
// so a session expires after SessionTTL without activity.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New connects to cfg.URL and pings the server before returning
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultConfig().DialTimeout
	}
	opts.DialTimeout = cfg.DialTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{client: client, cfg: cfg}
}

// Close closes the Redis connection pool
func (s *Storage) Close() error {
	return s.client.Close()
}

// SaveSession stores session under the browser session key
func (s *Storage) SaveSession(ctx context.Context, key string, session *backend.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(key), data, s.cfg.SessionTTL).Err()
}

// GetSession loads the session for key. A stored value that no longer
// decodes is removed and reported as not found, which signs the browser out.
func (s *Storage) GetSession(ctx context.Context, key string) (*backend.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, backend.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session backend.Session
	if err := json.Unmarshal(data, &session); err != nil {
		_ = s.client.Del(ctx, sessionKey(key)).Err()
		return nil, backend.ErrSessionNotFound
	}
	return &session, nil
}

// DeleteSession removes the session for key
func (s *Storage) DeleteSession(ctx context.Context, key string) error {
	return s.client.Del(ctx, sessionKey(key)).Err()
}
