package ratelimit

import (
	"net"
	"strconv"

	"github.com/gofiber/storage/redis"

	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/cache"
	"github.com/TutorDeskHQ/TutorDesk/internal/pkg/env"
)

var storage *redis.Storage

// NewStorage builds a Redis-backed fiber storage for the API rate limiter,
// reusing the connection settings of the existing cache client. Counters live
// in database 1 so flushing the cache never resets limits.
func NewStorage() *redis.Storage {
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	storage = redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
	return storage
}

// GetStorage returns the limiter storage, creating it on first use.
func GetStorage() *redis.Storage {
	if storage == nil {
		return NewStorage()
	}
	return storage
}
