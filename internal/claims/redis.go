package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClaimer uses SET NX so claims hold across replicas.
type RedisClaimer struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClaimer connects to redisURL and verifies the connection.
func NewRedisClaimer(redisURL string, ttl time.Duration) (*RedisClaimer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisClaimer{client: client, prefix: "confessions:analysis:", ttl: ttl}, nil
}

func (r *RedisClaimer) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

func (r *RedisClaimer) Close() error {
	return r.client.Close()
}
