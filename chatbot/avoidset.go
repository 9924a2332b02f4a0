package chatbot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// AvoidSet tracks document ids a caller wants Input to skip, shared
// across chatbot adapter replicas that front the same index.
type AvoidSet interface {
	Add(ctx context.Context, id uint32) error
	Contains(ctx context.Context, id uint32) (bool, error)
	Snapshot(ctx context.Context) (map[uint32]bool, error)
}

// RedisAvoidSet stores avoided ids in a Redis set so multiple chatbot
// adapter processes fronting the same engine share one avoid list
// instead of drifting apart in memory.
type RedisAvoidSet struct {
	client *redis.Client
	key    string
}

// NewRedisAvoidSet returns an AvoidSet backed by a Redis set at key.
func NewRedisAvoidSet(client *redis.Client, key string) *RedisAvoidSet {
	return &RedisAvoidSet{client: client, key: key}
}

func (a *RedisAvoidSet) Add(ctx context.Context, id uint32) error {
	if err := a.client.SAdd(ctx, a.key, strconv.FormatUint(uint64(id), 10)).Err(); err != nil {
		return fmt.Errorf("chatbot: avoid-set add: %w", err)
	}
	return nil
}

func (a *RedisAvoidSet) Contains(ctx context.Context, id uint32) (bool, error) {
	ok, err := a.client.SIsMember(ctx, a.key, strconv.FormatUint(uint64(id), 10)).Result()
	if err != nil {
		return false, fmt.Errorf("chatbot: avoid-set contains: %w", err)
	}
	return ok, nil
}

func (a *RedisAvoidSet) Snapshot(ctx context.Context) (map[uint32]bool, error) {
	members, err := a.client.SMembers(ctx, a.key).Result()
	if err != nil {
		return nil, fmt.Errorf("chatbot: avoid-set snapshot: %w", err)
	}
	out := make(map[uint32]bool, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 32)
		if err != nil {
			continue
		}
		out[uint32(id)] = true
	}
	return out, nil
}
