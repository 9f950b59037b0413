package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKeyFmt = "advisor:auth:%d"

// TokenStore holds the active login token per user. A token in the store is
// what makes a JWT a live session; deleting it logs the user out everywhere.
type TokenStore interface {
	Set(ctx context.Context, userId uint, token string, duration time.Duration) error
	Get(ctx context.Context, userId uint) (string, error)
	Delete(ctx context.Context, userId uint) error
}

// RedisTokenStore keeps login tokens in Redis with a sliding expiry.
type RedisTokenStore struct {
	rdb *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb}
}

func (s *RedisTokenStore) Set(ctx context.Context, userId uint, token string, duration time.Duration) error {
	return s.rdb.Set(ctx, fmt.Sprintf(tokenKeyFmt, userId), token, duration).Err()
}

func (s *RedisTokenStore) Get(ctx context.Context, userId uint) (string, error) {
	return s.rdb.Get(ctx, fmt.Sprintf(tokenKeyFmt, userId)).Result()
}

func (s *RedisTokenStore) Delete(ctx context.Context, userId uint) error {
	return s.rdb.Del(ctx, fmt.Sprintf(tokenKeyFmt, userId)).Err()
}

// OnlineUserCount returns the number of unique users with a live token.
func (s *RedisTokenStore) OnlineUserCount(ctx context.Context) (int, error) {
	var cursor uint64
	userIds := make(map[string]struct{})
	for {
		keys, newCursor, err := s.rdb.Scan(ctx, cursor, "advisor:auth:*", 100).Result()
		if err != nil {
			return 0, err
		}
		for _, key := range keys {
			parts := strings.Split(key, ":")
			if len(parts) == 3 && parts[2] != "" {
				userIds[parts[2]] = struct{}{}
			}
		}
		if newCursor == 0 {
			break
		}
		cursor = newCursor
	}
	return len(userIds), nil
}
