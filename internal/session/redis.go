package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "neurocalm:session:"

type redisRecord struct {
	Data      json.RawMessage `json:"data"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// RedisStore keeps sessions in Redis; keys expire with the session.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	raw, err := r.client.Get(ctx, redisKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	data, err := DecodeData(rec.Data)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Data: data, ExpiresAt: rec.ExpiresAt}, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := EncodeData(s.Data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(redisRecord{Data: data, ExpiresAt: s.ExpiresAt})
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, s.Token)
	}
	if err := r.client.Set(ctx, redisKey(s.Token), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, redisKey(token)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func redisKey(token string) string {
	return redisKeyPrefix + token
}
