package cache

import (
	"github.com/redis/go-redis/v9"
)

// Open returns a client for a redis:// or rediss:// URL. An empty URL yields a
// nil client; Redis backs request stats and the event stream, both optional.
func Open(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}
