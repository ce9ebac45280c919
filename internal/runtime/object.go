// Package runtime is a Go-side reference model of the generated-code
// runtime's object model (spec §5/§6): the object header, the tracing
// GC, and the slab allocator. It exists to exercise and test the ABI
// the emitters target, not to run alongside emitted C/LLVM output — the
// actual runtime ships as handwritten C, out of this repo's scope.
// Built on the standard library only: there's no third-party allocator
// or GC library in the example pack to ground this on, and the point of
// this package is to pin down the exact bit-level behavior spec.md
// describes, which a borrowed library couldn't do for us.
package runtime

// TypeInfo mirrors the emitted RogueTypeInfo: a name, a trace function
// that visits every reference-valued property, and (in the real
// runtime) a vtable the compiler emits separately. Trace is the GC
// hook: it calls visit once per object-valued property so Mark can
// recurse into the live graph.
type TypeInfo struct {
	Name  string
	Trace func(o *Object, visit func(*Object))
}

// Object mirrors spec §6's object header:
// {next_object, type, object_size, reference_count}.
// ObjectSize doubles as the GC mark bit: Mark complements it, Sweep
// restores it on survivors.
type Object struct {
	NextObject     *Object
	Type           *TypeInfo
	ObjectSize     int32
	ReferenceCount int32
	properties     []*Object

	// ptr is the slab address backing this object, if it was allocated
	// through Allocate; sweep hands it back to the slab's free list.
	ptr *byte
}

// Properties returns the object-valued properties this object holds,
// the edges TypeInfo.Trace walks during Mark.
func (o *Object) Properties() []*Object { return o.properties }

// SetProperties installs the object's traced reference fields, letting
// tests build arbitrary object graphs without a real emitted struct.
func (o *Object) SetProperties(refs ...*Object) { o.properties = refs }

// marked reports whether Mark has already visited o this pass: a
// complemented (negative, for the small positive sizes this model
// uses) ObjectSize means o is already in the current mark set.
func (o *Object) marked() bool { return o.ObjectSize < 0 }

// ArrayHeader mirrors spec §6's array header: the object header plus
// {count, element_size, is_reference_array} ahead of the element
// payload.
type ArrayHeader struct {
	Object            Object
	Count             int32
	ElementSize       int32
	IsReferenceArray  bool
}

// StringHeader mirrors spec §6's string header: the object header plus
// {count, hash_code} ahead of the UTF-16 character payload.
type StringHeader struct {
	Object   Object
	Count    int32
	HashCode int32
}
