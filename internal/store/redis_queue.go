// Package store holds the Redis-backed matchmaking queue shared by server instances.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// popPair removes the two oldest entries only when both are present.
var popPair = redis.NewScript(`
if redis.call('LLEN', KEYS[1]) < 2 then
  return {}
end
local first = redis.call('LPOP', KEYS[1])
local second = redis.call('LPOP', KEYS[1])
redis.call('SREM', KEYS[2], first, second)
return {first, second}
`)

// RedisQueue keeps waiting players in a list, with a set guarding duplicates.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: strings.TrimSpace(key)}
}

// Dial connects to url and pings the server.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (q *RedisQueue) keyList() string    { return q.key + ":queue" }
func (q *RedisQueue) keyMembers() string { return q.key + ":members" }

func (q *RedisQueue) Enqueue(ctx context.Context, playerID string) error {
	added, err := q.rdb.SAdd(ctx, q.keyMembers(), playerID).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		return model.ErrAlreadyQueued
	}
	if err := q.rdb.RPush(ctx, q.keyList(), playerID).Err(); err != nil {
		_ = q.rdb.SRem(ctx, q.keyMembers(), playerID).Err()
		return err
	}
	return nil
}

func (q *RedisQueue) NextPair(ctx context.Context) (first, second string, ok bool, err error) {
	vals, err := popPair.Run(ctx, q.rdb, []string{q.keyList(), q.keyMembers()}).StringSlice()
	if err == redis.Nil {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	if len(vals) < 2 {
		return "", "", false, nil
	}
	return vals[0], vals[1], true, nil
}

func (q *RedisQueue) Remove(ctx context.Context, playerID string) error {
	if err := q.rdb.LRem(ctx, q.keyList(), 0, playerID).Err(); err != nil {
		return err
	}
	return q.rdb.SRem(ctx, q.keyMembers(), playerID).Err()
}

func (q *RedisQueue) Size(ctx context.Context) (int, error) {
	n, err := q.rdb.LLen(ctx, q.keyList()).Result()
	return int(n), err
}
