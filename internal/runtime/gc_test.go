package runtime

import "testing"

func traceViaProperties(o *Object, visit func(*Object)) {
	for _, p := range o.Properties() {
		visit(p)
	}
}

func TestGCSweepsUnreachableAndKeepsReachable(t *testing.T) {
	heap := NewHeap()
	nodeType := &TypeInfo{Name: "Node", Trace: traceViaProperties}

	root := &Object{Type: nodeType, ObjectSize: 16, ReferenceCount: 1}
	child := &Object{Type: nodeType, ObjectSize: 16}
	root.SetProperties(child)
	garbage := &Object{Type: nodeType, ObjectSize: 16}

	heap.Register(root)
	heap.Register(child)
	heap.Register(garbage)

	heap.GC(nil)

	live := heap.Live()
	if len(live) != 2 {
		t.Fatalf("expected 2 live objects, got %d", len(live))
	}
	for _, o := range live {
		if o == garbage {
			t.Fatal("unreachable object survived GC")
		}
		if o.ObjectSize != 16 {
			t.Errorf("ObjectSize not restored after sweep: got %d", o.ObjectSize)
		}
	}
}

func TestGCHandlesCycles(t *testing.T) {
	heap := NewHeap()
	nodeType := &TypeInfo{Name: "Node", Trace: traceViaProperties}

	a := &Object{Type: nodeType, ObjectSize: 8, ReferenceCount: 1}
	b := &Object{Type: nodeType, ObjectSize: 8}
	a.SetProperties(b)
	b.SetProperties(a)

	heap.Register(a)
	heap.Register(b)

	heap.GC(nil)

	if len(heap.Live()) != 2 {
		t.Fatalf("expected the cycle to survive as reachable from a root, got %d live", len(heap.Live()))
	}
}

// TestGCIdempotence checks spec §8's GC idempotence property: running
// GC twice with no intervening allocation yields the same live set.
func TestGCIdempotence(t *testing.T) {
	heap := NewHeap()
	nodeType := &TypeInfo{Name: "Node", Trace: traceViaProperties}

	root := &Object{Type: nodeType, ObjectSize: 24, ReferenceCount: 1}
	child := &Object{Type: nodeType, ObjectSize: 24}
	root.SetProperties(child)
	heap.Register(root)
	heap.Register(child)
	heap.Register(&Object{Type: nodeType, ObjectSize: 24})

	heap.GC(nil)
	firstLive := heap.Live()

	heap.GC(nil)
	secondLive := heap.Live()

	if len(firstLive) != len(secondLive) {
		t.Fatalf("live set size changed across idempotent GC runs: %d vs %d", len(firstLive), len(secondLive))
	}
	for i := range firstLive {
		if firstLive[i] != secondLive[i] {
			t.Errorf("live set differs at %d: %p vs %p", i, firstLive[i], secondLive[i])
		}
		if firstLive[i].ObjectSize != 24 {
			t.Errorf("ObjectSize not restored: %d", firstLive[i].ObjectSize)
		}
	}
}

func TestGCFreesBackToSlab(t *testing.T) {
	heap := NewHeap()
	slab := NewSlab()
	nodeType := &TypeInfo{Name: "Node", Trace: traceViaProperties}

	garbage := Allocate(heap, slab, nodeType, 64)
	_ = Allocate(heap, slab, nodeType, 64) // kept alive below

	live := heap.Live()
	live[0].ReferenceCount = 1 // the second allocation is a root

	heap.GC(slab)

	if len(heap.Live()) != 1 {
		t.Fatalf("expected 1 live object after GC, got %d", len(heap.Live()))
	}
	reused := slab.Alloc(64)
	if reused != garbage.ptr {
		t.Errorf("expected sweep to return garbage's block to the slab free list")
	}
}
