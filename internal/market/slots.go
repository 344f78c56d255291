package market

import (
	"github.com/google/btree"
)

const btreeDegree = 32

// slotIndex tracks which slots of a fixed-capacity table are occupied.
//
// Allocation always returns the lowest free slot, and iteration visits
// occupied slots in ascending order, so observable enumeration order is the
// same as a linear scan over the whole table while empty slots cost nothing.
type slotIndex struct {
	capacity int
	used     *btree.BTree
	free     *btree.BTree
}

func newSlotIndex(capacity int) *slotIndex {
	x := &slotIndex{
		capacity: capacity,
		used:     btree.New(btreeDegree),
		free:     btree.New(btreeDegree),
	}
	for i := 0; i < capacity; i++ {
		x.free.ReplaceOrInsert(btree.Int(i))
	}
	return x
}

// alloc claims the lowest free slot. It reports false when the table is full.
func (x *slotIndex) alloc() (int, bool) {
	item := x.free.DeleteMin()
	if item == nil {
		return -1, false
	}
	x.used.ReplaceOrInsert(item)
	return int(item.(btree.Int)), true
}

// release frees slot i. Releasing a free slot is a no-op.
func (x *slotIndex) release(i int) {
	if x.used.Delete(btree.Int(i)) != nil {
		x.free.ReplaceOrInsert(btree.Int(i))
	}
}

func (x *slotIndex) occupied(i int) bool {
	return x.used.Has(btree.Int(i))
}

// ascend calls fn for each occupied slot in ascending order until fn returns
// false. fn must not alloc or release.
func (x *slotIndex) ascend(fn func(i int) bool) {
	x.used.Ascend(func(item btree.Item) bool {
		return fn(int(item.(btree.Int)))
	})
}

// snapshot returns the occupied slots in ascending order.
func (x *slotIndex) snapshot() []int {
	out := make([]int, 0, x.used.Len())
	x.ascend(func(i int) bool {
		out = append(out, i)
		return true
	})
	return out
}

func (x *slotIndex) len() int { return x.used.Len() }
