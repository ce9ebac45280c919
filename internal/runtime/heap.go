package runtime

// Heap is the process-wide object list (spec §5: "a single process-wide
// object list... forming the GC root set together with every type's
// _singleton and any object with reference_count > 0"). Register links
// each new object onto the head, so Live lists the newest first; GC walks the whole list to sweep.
type Heap struct {
	head       *Object
	singletons []*Object
}

// NewHeap returns an empty heap.
func NewHeap() *Heap { return &Heap{} }

// Register links o onto the process-wide object list, as every
// allocation does in the generated runtime before returning the new
// object to its caller.
func (h *Heap) Register(o *Object) {
	o.NextObject = h.head
	h.head = o
}

// MarkSingleton records o as a root regardless of its reference count,
// mirroring a type's `_singleton` instance.
func (h *Heap) MarkSingleton(o *Object) {
	h.singletons = append(h.singletons, o)
}

// roots collects every object Mark should start from: singletons and
// anything with a positive reference count.
func (h *Heap) roots() []*Object {
	var out []*Object
	out = append(out, h.singletons...)
	for o := h.head; o != nil; o = o.NextObject {
		if o.ReferenceCount > 0 {
			out = append(out, o)
		}
	}
	return out
}

// Live returns every object currently linked on the heap, in list
// order — used by tests to inspect survivors after GC.
func (h *Heap) Live() []*Object {
	var out []*Object
	for o := h.head; o != nil; o = o.NextObject {
		out = append(out, o)
	}
	return out
}
