package runtime

import (
	"sync/atomic"

	"github.com/sghaida/speedioc/di"
	"github.com/sghaida/speedioc/store"
)

// Transient constructs on every call.
func Transient(construct Producer) Producer {
	return construct
}

type box struct{ v any }

// ContainerSlot caches one instance per slot.
//
// The check-then-create is deliberately unlocked: under concurrent first
// access several instances may be constructed, the last store wins and every
// caller returns whatever occupies the slot after its own store.
func ContainerSlot(construct Producer) Producer {
	var slot atomic.Pointer[box]
	return func() (any, error) {
		if b := slot.Load(); b != nil {
			return b.v, nil
		}
		v, err := construct()
		if err != nil {
			return nil, err
		}
		slot.Store(&box{v: v})
		return slot.Load().v, nil
	}
}

// ProcessSlot caches one instance per (identity, key) in ps, shared by every
// resolver built under identity. It follows the same unlocked
// check-then-create as ContainerSlot; ps is last-write-wins.
func ProcessSlot(ps *store.ProcessStore, identity, key string, construct Producer) Producer {
	return func() (any, error) {
		if v, ok := ps.Get(identity, key); ok {
			return v, nil
		}
		v, err := construct()
		if err != nil {
			return nil, err
		}
		if err := ps.Set(identity, key, v); err != nil {
			return nil, err
		}
		if cur, ok := ps.Get(identity, key); ok {
			return cur, nil
		}
		return v, nil
	}
}

// ThreadSlot caches one instance per goroutine in ts.
func ThreadSlot(ts *store.ThreadStore, slot int, construct Producer) Producer {
	return func() (any, error) {
		return ts.Value(slot, construct)
	}
}

// CustomSlot delegates caching to m.
func CustomSlot(m di.LifetimeManager, construct Producer) Producer {
	return func() (any, error) {
		return m.Instance(construct)
	}
}
