package runtime

import "testing"

// TestSlabRoundTrip checks spec §8's slab round-trip property:
// allocate N blocks of size s, free them, allocate N again — the
// second batch of addresses is a permutation of the first.
func TestSlabRoundTrip(t *testing.T) {
	sizes := []int{1, 64, 65, 128, 200, 256}
	for _, size := range sizes {
		slab := NewSlab()
		const n = 8
		first := make([]*byte, n)
		for i := range first {
			first[i] = slab.Alloc(size)
		}
		for i := n - 1; i >= 0; i-- {
			slab.Free(first[i], size)
		}
		second := make([]*byte, n)
		for i := range second {
			second[i] = slab.Alloc(size)
		}
		if !isPermutation(first, second) {
			t.Errorf("size %d: second batch %v is not a permutation of first %v", size, second, first)
		}
	}
}

func isPermutation(a, b []*byte) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, pa := range a {
		found := false
		for j, pb := range b {
			if !used[j] && pa == pb {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestSlabLargeAllocationBypassesFreeList(t *testing.T) {
	slab := NewSlab()
	ptr := slab.Alloc(4096)
	if ptr == nil {
		t.Fatal("expected a non-nil allocation")
	}
	slab.Free(ptr, 4096)
	for _, fl := range slab.free {
		if len(fl) != 0 {
			t.Errorf("large allocation leaked into a small-block free list: %v", fl)
		}
	}
}

func TestSlotIndexIsCeilingRounded(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{1, 1},
		{64, 1},
		{65, 2},
		{128, 2},
		{129, 3},
		{256, 4},
	}
	for _, test := range tests {
		if got := slotIndex(test.size); got != test.want {
			t.Errorf("slotIndex(%d) = %d, want %d", test.size, got, test.want)
		}
	}
}
