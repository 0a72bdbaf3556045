package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

func InitRedis(redisAddress string, redisUsername string, redisPassword string) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
}

// Enabled reports whether InitRedis has been called. Pairing and the
// online cache degrade gracefully without redis.
func Enabled() bool {
	return Rdb != nil
}

func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if err := Rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to add key to redis")
	}
}

// GetUnmarshalledJSON reads key and decodes its JSON value into out.
func GetUnmarshalledJSON(ctx context.Context, key string, out any) error {
	raw, err := Rdb.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

// MarkDisplayOnline refreshes the display's liveness key.
func MarkDisplayOnline(ctx context.Context, name string, ttl time.Duration) {
	if !Enabled() {
		return
	}
	Set(ctx, fmt.Sprintf("display:%s:online", name), 1, ttl)
}

// IsDisplayOnline checks the liveness key. A missing key means offline;
// ok is false only when redis itself is unavailable and the caller should
// fall back to last_seen_at.
func IsDisplayOnline(ctx context.Context, name string) (bool, bool) {
	if !Enabled() {
		return false, false
	}
	_, err := Rdb.Get(ctx, fmt.Sprintf("display:%s:online", name)).Result()
	if err != nil {
		return false, err == redis.Nil
	}
	return true, true
}
