// internal/session/redis.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyFmt = "advisor:session:%s"
	redisTTL    = 24 * time.Hour
)

// RedisStore keeps sessions in redis so conversations survive process
// restarts. Sessions expire after a day of inactivity; an expired session
// simply restarts at STAGE_1 on next contact.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (r *RedisStore) Get(id string) (*Session, error) {
	ctx := context.Background()
	raw, err := r.rdb.Get(ctx, fmt.Sprintf(redisKeyFmt, id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	return &sess, nil
}

func (r *RedisStore) Put(sess *Session) error {
	ctx := context.Background()
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.rdb.Set(ctx, fmt.Sprintf(redisKeyFmt, sess.ID), raw, redisTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(id string) error {
	ctx := context.Background()
	if err := r.rdb.Del(ctx, fmt.Sprintf(redisKeyFmt, id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
