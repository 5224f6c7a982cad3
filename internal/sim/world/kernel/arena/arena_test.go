package arena

import (
	"errors"
	"testing"
)

func TestArenaStaleHandleAfterRemove(t *testing.T) {
	a := New[string]()
	h := a.Insert("tree")
	if v, ok := a.Get(h); !ok || *v != "tree" {
		t.Fatalf("expected live record, got %v %v", v, ok)
	}
	if err := a.Remove(h); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if a.Alive(h) {
		t.Fatalf("removed handle should be stale")
	}
	if err := a.Remove(h); !errors.Is(err, ErrStale) {
		t.Fatalf("double remove: want ErrStale, got %v", err)
	}

	// Slot reuse must not resurrect the old handle.
	h2 := a.Insert("bush")
	if h2.Index != h.Index {
		t.Fatalf("expected slot reuse, got %v after %v", h2, h)
	}
	if a.Alive(h) {
		t.Fatalf("old handle resolved after slot reuse")
	}
	if v, ok := a.Get(h2); !ok || *v != "bush" {
		t.Fatalf("new handle: %v %v", v, ok)
	}
}

func TestArenaZeroHandleNeverResolves(t *testing.T) {
	a := New[int]()
	a.Insert(1)
	if a.Alive(Handle{}) {
		t.Fatalf("zero handle resolved")
	}
	var nilArena *Arena[int]
	if _, ok := nilArena.Get(Handle{Index: 1, Gen: 1}); ok {
		t.Fatalf("nil arena resolved a handle")
	}
}

func TestArenaEachOrderAndLen(t *testing.T) {
	a := New[int]()
	h1 := a.Insert(10)
	a.Insert(20)
	a.Insert(30)
	_ = a.Remove(h1)
	if a.Len() != 2 {
		t.Fatalf("Len=%d want 2", a.Len())
	}
	var got []int
	a.Each(func(_ Handle, v *int) bool {
		got = append(got, *v)
		return true
	})
	if len(got) != 2 || got[0] != 20 || got[1] != 30 {
		t.Fatalf("Each order: %v", got)
	}
}
