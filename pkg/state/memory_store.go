package state

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store keyed by Ref.Identifier(). Every Save
// bumps the ETag and stamps UpdatedAt.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord[T]
	version int
	now     func() time.Time
}

type memoryRecord[T any] struct {
	ref      Ref
	snapshot T
	meta     Meta
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{records: map[string]memoryRecord[T]{}, now: time.Now}
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	return record.snapshot, cloneMeta(record.meta), true, nil
}

func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = map[string]memoryRecord[T]{}
	}
	s.version++
	stored := cloneMeta(meta)
	stored.ETag = strconv.Itoa(s.version)
	stored.UpdatedAt = s.clock()
	s.records[key] = memoryRecord[T]{ref: ref, snapshot: snapshot, meta: stored}
	return cloneMeta(stored), nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, ref Ref) (bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[key]
	delete(s.records, key)
	return ok, nil
}

// Refs returns stored references ordered by identifier.
func (s *MemoryStore[T]) Refs(_ context.Context) ([]Ref, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	refs := make([]Ref, 0, len(keys))
	for _, key := range keys {
		refs = append(refs, s.records[key].ref)
	}
	return refs, nil
}

func (s *MemoryStore[T]) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
