package store

import (
	"sync"

	"github.com/petermattis/goid"
)

// ThreadStore keeps one cell per slot per goroutine.
//
// A goroutine only ever touches its own cells, so cell access is not locked;
// the goroutine index itself is a sync.Map. Cells of finished goroutines stay
// until Release is called from them, so long-lived containers should call
// Release at the end of goroutines that resolved Thread registrations.
type ThreadStore struct {
	goroutines sync.Map // int64 -> *cells
}

type cells struct {
	values map[int]any
}

// NewThreadStore returns an empty store.
func NewThreadStore() *ThreadStore {
	return &ThreadStore{}
}

// Value returns the calling goroutine's value of slot, calling create on the
// first access from this goroutine. A failed create leaves the cell empty.
func (s *ThreadStore) Value(slot int, create func() (any, error)) (any, error) {
	c := s.own()
	if v, ok := c.values[slot]; ok {
		return v, nil
	}
	v, err := create()
	if err != nil {
		return nil, err
	}
	c.values[slot] = v
	return v, nil
}

// Release drops every cell owned by the calling goroutine.
func (s *ThreadStore) Release() {
	s.goroutines.Delete(goid.Get())
}

// Len returns the number of goroutines holding cells.
func (s *ThreadStore) Len() int {
	n := 0
	s.goroutines.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (s *ThreadStore) own() *cells {
	id := goid.Get()
	if v, ok := s.goroutines.Load(id); ok {
		return v.(*cells)
	}
	c := &cells{values: make(map[int]any)}
	s.goroutines.Store(id, c)
	return c
}
