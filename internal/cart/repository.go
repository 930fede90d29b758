package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// SessionRepository keeps a cart snapshot for the lifetime of a session.
// Load returns an empty store for unknown or expired sessions and slides the
// expiry of a live one. Saving an empty cart drops the snapshot.
type SessionRepository interface {
	Load(ctx context.Context, sessionID string) (*Store, error)
	Save(ctx context.Context, sessionID string, store *Store) error
}

// MemoryRepository keeps snapshots in process memory and forgets sessions
// that have been idle for longer than the TTL.
type MemoryRepository struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type memoryEntry struct {
	snapshot  Snapshot
	expiresAt time.Time
}

func NewMemoryRepository(ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *MemoryRepository) Load(ctx context.Context, sessionID string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	entry, ok := r.entries[sessionID]
	if !ok || r.expired(entry, now) {
		delete(r.entries, sessionID)
		return NewStore(), nil
	}
	entry.expiresAt = now.Add(r.ttl)
	r.entries[sessionID] = entry
	return Restore(entry.snapshot), nil
}

func (r *MemoryRepository) Save(ctx context.Context, sessionID string, store *Store) error {
	if store == nil {
		return fmt.Errorf("cart store required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweepLocked(now)
	if isEmpty(store) {
		delete(r.entries, sessionID)
		return nil
	}
	r.entries[sessionID] = memoryEntry{snapshot: store.Snapshot(), expiresAt: now.Add(r.ttl)}
	return nil
}

// Len reports how many sessions currently hold a cart, expired ones included
// until the next sweep.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *MemoryRepository) expired(entry memoryEntry, now time.Time) bool {
	return r.ttl > 0 && now.After(entry.expiresAt)
}

func (r *MemoryRepository) sweepLocked(now time.Time) {
	if r.ttl <= 0 || now.Sub(r.lastSweep) < r.ttl/4 {
		return
	}
	r.lastSweep = now
	for id, entry := range r.entries {
		if r.expired(entry, now) {
			delete(r.entries, id)
		}
	}
}

type snapshotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Touch(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// RedisRepository stores each session's snapshot as JSON under its cart key.
// Every load or save refreshes the key's TTL.
type RedisRepository struct {
	store snapshotStore
	ttl   time.Duration
}

func NewRedisRepository(store snapshotStore, ttl time.Duration) (*RedisRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &RedisRepository{store: store, ttl: ttl}, nil
}

func (r *RedisRepository) Load(ctx context.Context, sessionID string) (*Store, error) {
	key := r.store.CartKey(sessionID)
	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, redis.ErrNil) {
		return NewStore(), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart session")
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart session")
	}
	if _, err := r.store.Touch(ctx, key, r.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh cart session")
	}
	return Restore(snap), nil
}

func (r *RedisRepository) Save(ctx context.Context, sessionID string, store *Store) error {
	if store == nil {
		return fmt.Errorf("cart store required")
	}
	key := r.store.CartKey(sessionID)
	if isEmpty(store) {
		if err := r.store.Del(ctx, key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop cart session")
		}
		return nil
	}
	payload, err := json.Marshal(store.Snapshot())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart session")
	}
	if err := r.store.Set(ctx, key, payload, r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart session")
	}
	return nil
}

func isEmpty(store *Store) bool {
	_, pending := store.PendingRemoval()
	return store.Len() == 0 && !pending
}
