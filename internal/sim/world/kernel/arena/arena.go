package arena

import (
	"errors"
	"fmt"
)

// ErrStale is returned when a handle no longer refers to a live record.
var ErrStale = errors.New("stale handle")

// Handle addresses a record in an Arena. The zero Handle is never valid.
type Handle struct {
	Index uint32
	Gen   uint32
}

func (h Handle) IsZero() bool { return h == Handle{} }

func (h Handle) String() string {
	if h.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%d.%d", h.Index, h.Gen)
}

type slot[T any] struct {
	gen   uint32
	alive bool
	val   T
}

// Arena stores records in reusable slots. Removing a record bumps the slot
// generation so every handle issued before the removal reads as absent.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

func New[T any]() *Arena[T] {
	// Slot 0 is reserved so the zero Handle never resolves.
	return &Arena[T]{slots: make([]slot[T], 1)}
}

func (a *Arena[T]) Insert(v T) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.gen++
	s.alive = true
	s.val = v
	a.live++
	return Handle{Index: idx, Gen: s.gen}
}

// Get returns a pointer to the live record. The pointer must not be retained
// across a suspension point; keep the Handle instead.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	if a == nil || h.Index == 0 || int(h.Index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.Index]
	if !s.alive || s.gen != h.Gen {
		return nil, false
	}
	return &s.val, true
}

func (a *Arena[T]) Alive(h Handle) bool {
	_, ok := a.Get(h)
	return ok
}

func (a *Arena[T]) Remove(h Handle) error {
	if _, ok := a.Get(h); !ok {
		return ErrStale
	}
	s := &a.slots[h.Index]
	var zero T
	s.val = zero
	s.alive = false
	a.free = append(a.free, h.Index)
	a.live--
	return nil
}

func (a *Arena[T]) Len() int {
	if a == nil {
		return 0
	}
	return a.live
}

// Each visits live records in slot order. fn returning false stops the walk.
func (a *Arena[T]) Each(fn func(h Handle, v *T) bool) {
	if a == nil {
		return
	}
	for i := 1; i < len(a.slots); i++ {
		s := &a.slots[i]
		if !s.alive {
			continue
		}
		if !fn(Handle{Index: uint32(i), Gen: s.gen}, &s.val) {
			return
		}
	}
}
