package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Redis stores every key as a plain string value, namespaced by prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis accepts either a redis:// URL or a bare host:port address.
func NewRedis(addr, password string, db int, prefix string) *Redis {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		}
	}

	return &Redis{client: redis.NewClient(opts), prefix: prefix}
}

// Initialize pings redis until it answers, backing off exponentially up to
// 30s between attempts.
func (r *Redis) Initialize(ctx context.Context, log logrus.FieldLogger, attempts int) error {
	for i := 0; i < attempts; i++ {
		err := r.Ping(ctx)
		if err == nil {
			return nil
		}
		log.WithField("attempt", i+1).Warnf("redis ping failed: %v", err)

		backoff := time.Duration(1<<uint(i)) * time.Second
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("redis unreachable after %d attempts", attempts)
}

func (r *Redis) Read(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return b, nil
}

func (r *Redis) Write(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis DEL %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
