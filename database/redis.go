package database

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

// ConnectRedis builds the shared Redis client used for the per-task timer
// cache and the JWT revocation store. Returns nil when REDIS_ADDR is unset;
// callers degrade gracefully without it.
func ConnectRedis() *redis.Client {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil
	}
	opts := &redis.Options{Addr: addr}
	if p := os.Getenv("REDIS_PASS"); p != "" {
		opts.Password = p
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			opts.DB = n
		}
	}
	rc := redis.NewClient(opts)
	if err := rc.Ping(context.Background()).Err(); err != nil {
		log.Printf("[redis] ping failed, running without cache: %v", err)
		return nil
	}
	return rc
}
