package config

import (
	"os"

	"gopkg.in/redis.v5"
)

var RedisClient *redis.Client

// SetupRedis connects to the redis instance named by REDIS_URL. With no
// REDIS_URL the activity log is disabled and RedisClient stays nil.
func SetupRedis() {
	redisUrl := os.Getenv("REDIS_URL")
	if redisUrl == "" {
		return
	}

	RedisClient = redis.NewClient(&redis.Options{
		Addr: redisUrl,
	})
}
