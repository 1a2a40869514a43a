package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/metrics"
)

// MemoryStore is the default entry store: an in-process LRU bounded by entry
// count. Expired entries stay resident until capacity eviction or the stale
// retention window pushes them out, which is what makes stale-on-error
// fallback possible. Nothing survives a process restart.
type MemoryStore struct {
	mu         sync.Mutex
	maxEntries int
	retention  time.Duration
	entries    map[string]*list.Element
	order      *list.List
	metrics    *metrics.Metrics
	now        func() time.Time
}

type memoryEntry struct {
	key   string
	entry *Entry
}

// NewMemoryStore builds a MemoryStore holding at most maxEntries entries.
// retention bounds how long past expiry an entry remains available for
// stale serving.
func NewMemoryStore(maxEntries int, retention time.Duration, m *metrics.Metrics) *MemoryStore {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &MemoryStore{
		maxEntries: maxEntries,
		retention:  retention,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		metrics:    m,
		now:        time.Now,
	}
}

// Get returns the entry at key, fresh or stale, bumping its recency. Entries
// beyond the stale retention window are dropped on access. The lock covers
// only the map and list manipulation, never a compute.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elem, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	me := elem.Value.(*memoryEntry)
	if s.retention > 0 && s.now().Sub(me.entry.FetchedAt) > me.entry.TTL+s.retention {
		s.order.Remove(elem)
		delete(s.entries, key)
		return nil, false
	}
	s.order.MoveToFront(elem)
	return me.entry, true
}

// Set inserts or replaces the entry at key, evicting the least recently used
// entry when the capacity bound is hit.
func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.entries[key]; ok {
		elem.Value.(*memoryEntry).entry = entry
		s.order.MoveToFront(elem)
		return
	}
	s.entries[key] = s.order.PushFront(&memoryEntry{key: key, entry: entry})
	for len(s.entries) > s.maxEntries {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*memoryEntry).key)
		if s.metrics != nil {
			s.metrics.CacheEvictionsTotal.Inc()
		}
	}
}

// Len returns the current entry count.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
