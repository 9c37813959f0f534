package session

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"InterestBot/internal/domain"
	"InterestBot/internal/ports"
)

// MemoryStore keeps sessions in process. Idle sessions expire after ttl.
type MemoryStore struct {
	cache *cache.Cache
}

var _ ports.SessionStore = (*MemoryStore)(nil)

// NewMemoryStore builds a store; ttl <= 0 keeps sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cleanup := 10 * time.Minute
	if ttl <= 0 {
		ttl = cache.NoExpiration
		cleanup = 0
	}
	return &MemoryStore{cache: cache.New(ttl, cleanup)}
}

func (m *MemoryStore) Load(_ context.Context, userID int64) (domain.Session, error) {
	if x, found := m.cache.Get(key(userID)); found {
		return x.(domain.Session), nil
	}
	return domain.NewSession(userID), nil
}

func (m *MemoryStore) Save(_ context.Context, s domain.Session) error {
	m.cache.Set(key(s.UserID), s, cache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.cache.Delete(key(userID))
	return nil
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.ItemCount()
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
