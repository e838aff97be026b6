// Package store provides the cross-scope singleton storage used by built
// containers: a process-wide store shared by every container built under the
// same artifact identity, and a goroutine-local store owned by one container.
package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/patrickmn/go-cache"
)

var (
	// ErrEmptyIdentity is returned for an empty artifact identity.
	ErrEmptyIdentity = errors.New("store: identity must not be empty")
	// ErrEmptyKey is returned for an empty instance key.
	ErrEmptyKey = errors.New("store: instance key must not be empty")
)

// ProcessStore maps identity -> (instance key -> value).
//
// It is safe for concurrent use. Concurrent Set calls on the same key are
// last-write-wins. Entries never expire.
type ProcessStore struct {
	scopes *cache.Cache
}

// NewProcessStore returns an empty store.
func NewProcessStore() *ProcessStore {
	return &ProcessStore{scopes: cache.New(cache.NoExpiration, 0)}
}

var (
	sharedOnce sync.Once
	shared     *ProcessStore
)

// Shared returns the default process-wide store, creating it on first use.
func Shared() *ProcessStore {
	sharedOnce.Do(func() { shared = NewProcessStore() })
	return shared
}

// Get returns the value stored under (identity, key).
func (s *ProcessStore) Get(identity, key string) (any, bool) {
	if identity == "" || key == "" {
		return nil, false
	}
	scope, ok := s.lookup(identity)
	if !ok {
		return nil, false
	}
	return scope.Get(key)
}

// Set stores v under (identity, key), replacing any previous value.
func (s *ProcessStore) Set(identity, key string, v any) error {
	if identity == "" {
		return ErrEmptyIdentity
	}
	if key == "" {
		return ErrEmptyKey
	}
	s.scope(identity).Set(key, v, cache.NoExpiration)
	return nil
}

// Len returns the number of values stored under identity.
func (s *ProcessStore) Len(identity string) int {
	scope, ok := s.lookup(identity)
	if !ok {
		return 0
	}
	return scope.ItemCount()
}

// Identities returns every identity holding a scope, sorted.
func (s *ProcessStore) Identities() []string {
	items := s.scopes.Items()
	out := make([]string, 0, len(items))
	for id := range items {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Purge drops every value stored under identity.
func (s *ProcessStore) Purge(identity string) {
	s.scopes.Delete(identity)
}

func (s *ProcessStore) lookup(identity string) (*cache.Cache, bool) {
	v, ok := s.scopes.Get(identity)
	if !ok {
		return nil, false
	}
	return v.(*cache.Cache), true
}

// scope returns the inner cache of identity, creating it if needed. Add is
// atomic, so racing creators agree on a single inner cache.
func (s *ProcessStore) scope(identity string) *cache.Cache {
	if c, ok := s.lookup(identity); ok {
		return c
	}
	fresh := cache.New(cache.NoExpiration, 0)
	if err := s.scopes.Add(identity, fresh, cache.NoExpiration); err == nil {
		return fresh
	}
	c, _ := s.lookup(identity)
	return c
}
