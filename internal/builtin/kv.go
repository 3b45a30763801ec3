package builtin

import (
	"context"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"
)

var (
	redisOnce   sync.Once
	redisClient *redis.Client
)

// redisConn lazily dials the KV/pub-sub backend from REDIS_ADDR (default
// localhost:6379), grounded on redis/go-redis -- the KV and Publish
// opcodes share one connection since both map onto the same backing
// store in every example manifest that carries go-redis.
func redisConn() *redis.Client {
	redisOnce.Do(func() {
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		redisClient = redis.NewClient(&redis.Options{Addr: addr})
	})
	return redisClient
}

func KvGet(key string) (string, error) {
	v, err := redisConn().Get(context.Background(), key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

func KvPut(key, value string) error {
	return redisConn().Set(context.Background(), key, value, 0).Err()
}

func KvDelete(key string) error {
	return redisConn().Del(context.Background(), key).Err()
}

func KvClear(prefix string) error {
	ctx := context.Background()
	iter := redisConn().Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := redisConn().Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func Publish(channel, message string) error {
	return redisConn().Publish(context.Background(), channel, message).Err()
}
