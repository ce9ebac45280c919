package runtime

// GC runs one tracing mark/sweep cycle (spec §5: "GC runs only when
// explicitly invoked by generated code"). slab may be nil, in which
// case swept garbage is simply dropped rather than returned to a free
// list — useful for tests that only care about the live set.
func (h *Heap) GC(slab *Slab) {
	h.mark()
	h.sweep(slab)
}

// mark sets ObjectSize to its bitwise complement on every object
// reachable from the root set (spec §5: "mark phase sets object_size
// to its bitwise complement"). The complement doubles as a visited
// check, so cycles in the object graph terminate the recursion.
func (h *Heap) mark() {
	var visit func(o *Object)
	visit = func(o *Object) {
		if o == nil || o.marked() {
			return
		}
		o.ObjectSize = ^o.ObjectSize
		if o.Type != nil && o.Type.Trace != nil {
			o.Type.Trace(o, visit)
		} else {
			for _, p := range o.properties {
				visit(p)
			}
		}
	}
	for _, root := range h.roots() {
		visit(root)
	}
}

// sweep keeps every marked (complemented) object, restoring its
// ObjectSize, and unlinks+frees the rest (spec §5: "sweep keeps
// complemented objects (restoring object_size) and frees the rest to
// the slab or system").
func (h *Heap) sweep(slab *Slab) {
	var prev *Object
	cur := h.head
	for cur != nil {
		next := cur.NextObject
		if cur.marked() {
			cur.ObjectSize = ^cur.ObjectSize
			prev = cur
		} else {
			if prev == nil {
				h.head = next
			} else {
				prev.NextObject = next
			}
			if slab != nil && cur.ObjectSize > 0 {
				slab.Free(cur.ptr, int(cur.ObjectSize))
			}
		}
		cur = next
	}
}
