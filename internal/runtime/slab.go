package runtime

// Slab is the small-object allocator (spec §6: "one 4 KiB page bank,
// free-lists for size classes at 64-byte granularity up to 256 bytes;
// larger allocations fall through to the system allocator").
//
// Open question resolution (see DESIGN.md): the historical
// implementation used slot `size >> 6` on free but `(size+63) >> 6` on
// alloc, an off-by-one at exact 64-byte multiples. Nothing here depends
// on that bit-exact quirk, so both Alloc and Free use the same
// ceiling-rounded slot index.
const (
	pageSize    = 4096
	granularity = 64
	maxSmall    = 256
	numClasses  = maxSmall / granularity
)

type Slab struct {
	pages [][]byte
	cur   []byte
	free  [numClasses][]*byte
}

// NewSlab returns an empty slab allocator; its first allocation carves
// a fresh 4 KiB page.
func NewSlab() *Slab { return &Slab{} }

// slotIndex returns the 1-based free-list slot for size, ceiling
// rounded to the 64-byte granularity (1..numClasses).
func slotIndex(size int) int {
	idx := (size + granularity - 1) / granularity
	if idx < 1 {
		idx = 1
	}
	return idx
}

// Alloc returns size bytes: from a size-class free list if one is
// available, otherwise bump-allocated from the current page (carving a
// new page if the current one is exhausted). Requests over maxSmall
// bypass the slab and go straight to the system allocator, matching the
// spec's fallthrough rule; such blocks can't be returned to a free list
// by Free.
func (s *Slab) Alloc(size int) *byte {
	if size > maxSmall {
		b := make([]byte, size)
		return &b[0]
	}
	slot := slotIndex(size)
	freeList := s.free[slot-1]
	if n := len(freeList); n > 0 {
		ptr := freeList[n-1]
		s.free[slot-1] = freeList[:n-1]
		return ptr
	}
	blockSize := slot * granularity
	if len(s.cur) < blockSize {
		page := make([]byte, pageSize)
		s.pages = append(s.pages, page)
		s.cur = page
	}
	ptr := &s.cur[0]
	s.cur = s.cur[blockSize:]
	return ptr
}

// Free returns a block of the given size to its size class's free list.
// Blocks over maxSmall were never slab-owned (they fell through to the
// system allocator in Alloc) and are silently dropped.
func (s *Slab) Free(ptr *byte, size int) {
	if size > maxSmall {
		return
	}
	slot := slotIndex(size)
	s.free[slot-1] = append(s.free[slot-1], ptr)
}

// Allocate carves size bytes from slab, registers a new Object backed
// by that address on heap, and returns it — the Go-model equivalent of
// the generated runtime's RogueNewObject.
func Allocate(heap *Heap, slab *Slab, typ *TypeInfo, size int32) *Object {
	o := &Object{Type: typ, ObjectSize: size, ptr: slab.Alloc(int(size))}
	heap.Register(o)
	return o
}
