package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"InterestBot/internal/domain"
	"InterestBot/internal/ports"
)

const defaultPrefix = "interestbot:session:"

// RedisStore keeps sessions as JSON values so they survive restarts.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ ports.SessionStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. ttl <= 0 stores without expiry.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis parses a redis:// URL, falling back to a bare address, and pings.
func DialRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		opt = &redis.Options{Addr: rawURL}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type record struct {
	State      domain.State      `json:"state"`
	Scratchpad domain.Scratchpad `json:"scratchpad"`
}

func (r *RedisStore) key(userID int64) string {
	return r.prefix + key(userID)
}

func (r *RedisStore) Load(ctx context.Context, userID int64) (domain.Session, error) {
	raw, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewSession(userID), nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return decode(userID, raw)
}

func (r *RedisStore) Save(ctx context.Context, s domain.Session) error {
	raw, err := encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(s.UserID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func encode(s domain.Session) ([]byte, error) {
	raw, err := json.Marshal(record{State: s.State, Scratchpad: s.Scratchpad})
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return raw, nil
}

func decode(userID int64, raw []byte) (domain.Session, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return domain.Session{UserID: userID, State: rec.State, Scratchpad: rec.Scratchpad}, nil
}
