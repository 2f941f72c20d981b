// Package redisstore keeps the operator pause flags in a Redis set so they survive
// restarts and are shared between replicas.
package redisstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PabloGalante/tur-agent/internal/domain"
)

const DefaultKey = "tur:paused_users"

type OverrideRegistry struct {
	client *redis.Client
	key    string
}

// NewOverrideRegistry connects to redisURL and checks the connection.
func NewOverrideRegistry(ctx context.Context, redisURL string) (*OverrideRegistry, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewOverrideRegistryFromClient(client, DefaultKey), nil
}

func NewOverrideRegistryFromClient(client *redis.Client, key string) *OverrideRegistry {
	if key == "" {
		key = DefaultKey
	}
	return &OverrideRegistry{client: client, key: key}
}

func (r *OverrideRegistry) IsPaused(ctx context.Context, userID domain.UserID) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, string(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis IsPaused: %w", err)
	}
	return ok, nil
}

func (r *OverrideRegistry) SetPaused(ctx context.Context, userID domain.UserID, paused bool) error {
	var err error
	if paused {
		err = r.client.SAdd(ctx, r.key, string(userID)).Err()
	} else {
		err = r.client.SRem(ctx, r.key, string(userID)).Err()
	}
	if err != nil {
		return fmt.Errorf("redis SetPaused: %w", err)
	}
	return nil
}

func (r *OverrideRegistry) ListPaused(ctx context.Context) ([]domain.UserID, error) {
	members, err := r.client.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ListPaused: %w", err)
	}
	sort.Strings(members)

	out := make([]domain.UserID, 0, len(members))
	for _, m := range members {
		out = append(out, domain.UserID(m))
	}
	return out, nil
}

func (r *OverrideRegistry) Close() error {
	return r.client.Close()
}
