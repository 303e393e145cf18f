package cache

import "library/config"

// ActivityCacher stores the most recent requests per user.
type ActivityCacher interface {
	Write(key string, value []byte) error
	Read(key string) ([]string, error)
}

// RedisActivityCache keeps each user's last MaxNumber requests in a
// redis list, newest first.
type RedisActivityCache struct {
	MaxNumber int
}

func CreateRedisCache(maxNumber int) RedisActivityCache {
	return RedisActivityCache{maxNumber}
}

func (cache *RedisActivityCache) Write(key string, value []byte) error {
	pushCmd := config.RedisClient.LPush(key, value)

	if pushCmd.Err() != nil {
		return pushCmd.Err()
	}

	trimCmd := config.RedisClient.LTrim(key, 0, int64(cache.MaxNumber-1))

	if trimCmd.Err() != nil {
		return trimCmd.Err()
	}

	return nil
}

func (cache *RedisActivityCache) Read(key string) ([]string, error) {
	return config.RedisClient.LRange(key, 0, int64(cache.MaxNumber-1)).Result()
}
