// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"meetwise/config"
)

// HoldCacheClient is the dedicated client for advisory slot holds.
var HoldCacheClient *redis.Client

// InitHoldCache initializes the Redis client backing the slot-hold store.
func InitHoldCache() {
	HoldCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisHoldDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := HoldCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Holds): %v", err)
	}
}

// GetHoldCacheClient returns the Redis client for the slot-hold store.
func GetHoldCacheClient() *redis.Client {
	if HoldCacheClient == nil {
		InitHoldCache()
	}
	return HoldCacheClient
}
