package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"safc/internal/utils"

	"github.com/redis/go-redis/v9"
)

// SessionStore persists one State per session id. A missing session is
// reported as ok=false, not as an error.
type SessionStore interface {
	Load(ctx context.Context, id string) (State, bool, error)
	Save(ctx context.Context, id string, st State) error
	Delete(ctx context.Context, id string) error
}

// MemorySessionStore 进程内会话存储，容量有限，条目过期即视为会话失效
type MemorySessionStore struct {
	cache *utils.TTLCache[string, []byte]
}

func NewMemorySessionStore(capacity int, ttl time.Duration) (*MemorySessionStore, error) {
	c, err := utils.NewTTLCache[string, []byte](capacity, ttl)
	if err != nil {
		return nil, err
	}
	return &MemorySessionStore{cache: c}, nil
}

func (m *MemorySessionStore) Load(_ context.Context, id string) (State, bool, error) {
	raw, ok := m.cache.Get(id)
	if !ok {
		return State{}, false, nil
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, false, fmt.Errorf("decode session: %w", err)
	}
	return st, true, nil
}

func (m *MemorySessionStore) Save(_ context.Context, id string, st State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	m.cache.Set(id, raw)
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

const sessionKeyPrefix = "safc:session:"

// RedisSessionStore 会话以 JSON 存于 redis，带 TTL
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (r *RedisSessionStore) Load(ctx context.Context, id string) (State, bool, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("load session: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, false, fmt.Errorf("decode session: %w", err)
	}
	return st, true, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, id string, st State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+id, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// NewRedisClient 创建并检测 redis 连接
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
