package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qr_dine_backend/internal/models"

	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "scan_session:"

// RedisStore shares scan sessions between API instances.
type RedisStore struct {
	rdb goredis.UniversalClient
	now func() time.Time
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreFromClient(rdb), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb goredis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (r *RedisStore) Create(ctx context.Context, s models.ScanSession) error {
	if s.Token == "" {
		return errors.New("session token required")
	}
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+s.Token, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set scan session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, token string) (*models.ScanSession, error) {
	raw, err := r.rdb.Get(ctx, redisKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get scan session: %w", err)
	}
	var s models.ScanSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode scan session: %w", err)
	}
	if !r.now().Before(s.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	return r.rdb.Del(ctx, redisKeyPrefix+token).Err()
}

// Close releases the underlying client.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
