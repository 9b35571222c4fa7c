package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"docspot/internal/config"
	"docspot/internal/model"
)

const (
	keyPrefix     = "docspot:explore"
	generationKey = keyPrefix + ":gen"
)

// Redis caches explore listings in Redis.
// Entries are namespaced by a generation counter; Invalidate bumps the counter so
// stale entries are never read again and simply expire.
type Redis struct {
	cli *redis.Client
	ttl time.Duration
}

var _ DocumentListCache = (*Redis)(nil)

// NewRedis connects to cfg.Addr and pings it.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	cli := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisWithClient(cli, cfg.TTL), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(cli *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Redis{cli: cli, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, userID, query string) ([]model.Document, bool, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return nil, false, err
	}
	b, err := r.cli.Get(ctx, listKey(gen, userID, query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var docs []model.Document
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, false, fmt.Errorf("decode cached listing: %w", err)
	}
	return docs, true, nil
}

func (r *Redis) Set(ctx context.Context, userID, query string, docs []model.Document) error {
	gen, err := r.generation(ctx)
	if err != nil {
		return err
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	return r.cli.Set(ctx, listKey(gen, userID, query), b, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context) error {
	return r.cli.Incr(ctx, generationKey).Err()
}

func (r *Redis) Close() error { return r.cli.Close() }

func (r *Redis) generation(ctx context.Context) (int64, error) {
	gen, err := r.cli.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func listKey(gen int64, userID, query string) string {
	return fmt.Sprintf("%s:%d:%s:%s", keyPrefix, gen, url.QueryEscape(userID), url.QueryEscape(query))
}
