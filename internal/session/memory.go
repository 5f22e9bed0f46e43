package session

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jonathan/career-assistant/internal/workflow"
)

// Defaults for the in-memory store
const (
	DefaultTTL             = 24 * time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

// MemoryStore keeps sessions in process memory with expiry
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates a store whose entries expire after ttl and are
// purged every cleanup interval. Zero values take the defaults.
func NewMemoryStore(ttl, cleanup time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanup <= 0 {
		cleanup = DefaultCleanupInterval
	}
	return &MemoryStore{cache: cache.New(ttl, cleanup)}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (*workflow.State, bool, error) {
	if x, found := s.cache.Get(key.String()); found {
		return x.(*workflow.State).Clone(), true, nil
	}
	return nil, false, nil
}

func (s *MemoryStore) Put(_ context.Context, key Key, st *workflow.State) error {
	if st == nil {
		return ErrNilState
	}
	s.cache.Set(key.String(), st.Clone(), cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.cache.Delete(key.String())
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID int64) ([]Key, error) {
	prefix := userPrefix(userID)
	var keys []Key
	for k := range s.cache.Items() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		key, err := ParseKey(k)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Kind < keys[j].Kind })
	return keys, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, userID int64) (int, error) {
	keys, err := s.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		s.cache.Delete(k.String())
	}
	return len(keys), nil
}

// Len reports the number of unexpired sessions
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
