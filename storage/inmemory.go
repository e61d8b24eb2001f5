package storage

import (
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	rec    Record
	expiry time.Time
}

// InMemoryBackend is a Backend implementation powered by a map, to be used
// for testing or caches. Expired entries are dropped on access.
type InMemoryBackend struct {
	sync.Mutex
	m   map[string]memoryEntry
	now func() time.Time
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		m:   make(map[string]memoryEntry),
		now: time.Now,
	}
}

func (s *InMemoryBackend) Put(key string, rec Record, ttl time.Duration) error {
	s.Lock()
	s.m[key] = memoryEntry{
		rec: Record{
			Value: dup(rec.Value),
			Meta:  dupMeta(rec.Meta),
		},
		expiry: s.now().Add(ttl),
	}
	s.Unlock()
	return nil
}

func (s *InMemoryBackend) Get(key string) (Record, error) {
	s.Lock()
	defer s.Unlock()
	entry, ok := s.m[key]
	if ok && !entry.expiry.After(s.now()) {
		delete(s.m, key)
		ok = false
	}
	if !ok {
		return Record{}, fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	rec := Record{
		Value: dup(entry.rec.Value),
		Meta:  dupMeta(entry.rec.Meta),
	}
	if rec.Value == nil {
		rec.Value = []byte{}
	}
	return rec, nil
}
