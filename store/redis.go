package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	cookai "github.com/taliieva/cook-ai-client"
)

// ErrRedisUnavailable is an exported constant or variable used by the client core.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Redis defines a public type used by cookai APIs.
//
// Redis instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// Keys are namespaced as <prefix>:<installation>:<key> so several installations
// can share one database.
type Redis struct {
	client       redis.UniversalClient
	prefix       string
	installation string
}

// NewRedis describes the newredis operation and its observable behavior.
//
// NewRedis may return an error when input validation, dependency calls, or security checks fail.
// NewRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRedis(client redis.UniversalClient, installation string) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	installation = strings.TrimSpace(installation)
	if installation == "" {
		return nil, errors.New("installation id is required")
	}
	if strings.Contains(installation, ":") {
		return nil, errors.New("installation id must not contain ':'")
	}

	return &Redis{
		client:       client,
		prefix:       "cookai:session",
		installation: installation,
	}, nil
}

func (r *Redis) redisKey(key string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, r.installation, key)
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", cookai.ErrKeyNotFound
		}
		return "", fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return value, nil
}

// Set describes the set operation and its observable behavior.
//
// Set may return an error when input validation, dependency calls, or security checks fail.
// Set does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}
