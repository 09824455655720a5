// Package usercache holds in-process implementations of ports.UserStore.
package usercache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	domainauth "github.com/target/authweb/internal/domain/auth"
	"github.com/target/authweb/internal/ports"
)

var _ ports.UserStore = (*MemoryStore)(nil)

const (
	// DefaultCapacity bounds the number of sessions held when none is configured.
	DefaultCapacity = 10000
	// DefaultSweepInterval is how often Set scans for expired entries.
	DefaultSweepInterval = time.Minute
)

type entry struct {
	key       string
	user      domainauth.User
	expiresAt time.Time
}

// MemoryStoreConfig groups constructor options.
type MemoryStoreConfig struct {
	Capacity      int
	SweepInterval time.Duration
	Now           func() time.Time
}

// MemoryStore is a process-local LRU user cache with per-entry expiry.
// Expired entries are dropped on read, by a periodic sweep on Set, and before
// any live entry is evicted for capacity.
// Concurrency: methods are safe for concurrent use.
type MemoryStore struct {
	mu        sync.Mutex
	cap       int
	sweep     time.Duration
	lastSweep time.Time
	ll        *list.List // front = most recently used
	items     map[string]*list.Element
	now       func() time.Time
	evicts    atomic.Uint64
}

// NewMemoryStore creates an empty MemoryStore with default limits.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithConfig(MemoryStoreConfig{})
}

// NewMemoryStoreWithConfig creates a MemoryStore from cfg, filling in defaults.
func NewMemoryStoreWithConfig(cfg MemoryStoreConfig) *MemoryStore {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = DefaultSweepInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		cap:       capacity,
		sweep:     sweep,
		lastSweep: now(),
		ll:        list.New(),
		items:     make(map[string]*list.Element),
		now:       now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*domainauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	ent := el.Value.(*entry) //nolint:forcetypeassert // only *entry is stored
	if s.expired(ent, s.now()) {
		s.removeElement(el)
		return nil, nil
	}
	s.ll.MoveToFront(el)
	u := ent.user
	return &u, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, u domainauth.User, ttl time.Duration) error {
	if key == "" || ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.sweep {
		s.removeExpired(now)
		s.lastSweep = now
	}

	exp := now.Add(ttl)
	if el, ok := s.items[key]; ok {
		ent := el.Value.(*entry) //nolint:forcetypeassert // only *entry is stored
		ent.user = u
		ent.expiresAt = exp
		s.ll.MoveToFront(el)
		return nil
	}

	s.items[key] = s.ll.PushFront(&entry{key: key, user: u, expiresAt: exp})
	s.evictIfNeeded(now)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		s.removeElement(el)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

// Evictions returns how many live entries were dropped for capacity.
func (s *MemoryStore) Evictions() uint64 { return s.evicts.Load() }

func (s *MemoryStore) evictIfNeeded(now time.Time) {
	if s.ll.Len() <= s.cap {
		return
	}
	s.removeExpired(now)
	s.lastSweep = now
	for s.ll.Len() > s.cap {
		back := s.ll.Back()
		if back == nil {
			return
		}
		s.removeElement(back)
		s.evicts.Add(1)
	}
}

func (s *MemoryStore) removeExpired(now time.Time) {
	for el := s.ll.Back(); el != nil; {
		prev := el.Prev()
		if s.expired(el.Value.(*entry), now) { //nolint:forcetypeassert // only *entry is stored
			s.removeElement(el)
		}
		el = prev
	}
}

func (s *MemoryStore) expired(e *entry, now time.Time) bool {
	return !now.Before(e.expiresAt)
}

func (s *MemoryStore) removeElement(el *list.Element) {
	s.ll.Remove(el)
	delete(s.items, el.Value.(*entry).key) //nolint:forcetypeassert // only *entry is stored
}
