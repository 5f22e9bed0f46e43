package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/career-assistant/internal/workflow"
)

// DefaultKeyPrefix namespaces session keys in a shared Redis
const DefaultKeyPrefix = "career:session:"

const scanBatch = 100

// RedisStore keeps sessions in Redis as JSON so several server processes can
// share them.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A zero ttl keeps entries until deleted.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Connect parses a redis:// URL, creates a client and pings it
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) redisKey(key Key) string {
	return s.prefix + key.String()
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*workflow.State, bool, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get session %s: %w", key, err)
	}

	var st workflow.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, false, fmt.Errorf("failed to decode session %s: %w", key, err)
	}
	return &st, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key Key, st *workflow.State) error {
	if st == nil {
		return ErrNilState
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.redisKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to put session %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) ListByUser(ctx context.Context, userID int64) ([]Key, error) {
	match := s.prefix + userPrefix(userID) + "*"

	var keys []Key
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan sessions for user %d: %w", userID, err)
		}
		for _, raw := range batch {
			key, err := ParseKey(strings.TrimPrefix(raw, s.prefix))
			if err != nil {
				continue
			}
			keys = append(keys, key)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].Kind < keys[j].Kind })
	return keys, nil
}

func (s *RedisStore) DeleteUser(ctx context.Context, userID int64) (int, error) {
	keys, err := s.ListByUser(ctx, userID)
	if err != nil || len(keys) == 0 {
		return 0, err
	}

	raw := make([]string, len(keys))
	for i, k := range keys {
		raw[i] = s.redisKey(k)
	}
	n, err := s.client.Del(ctx, raw...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions for user %d: %w", userID, err)
	}
	return int(n), nil
}
