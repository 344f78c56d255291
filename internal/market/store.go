package market

import (
	"errors"
	"fmt"
)

// ErrTableFull is returned when an insert finds no free slot.
var ErrTableFull = errors.New("table is full")

// Table names, used in errors, logs and metric labels.
const (
	TableSupplies = "supplies"
	TableDemands  = "demands"
	TableWatches  = "watches"
	TableClients  = "clients"
)

// Store holds the supply, demand and watch tables. Each table is a fixed
// number of slots; a slot is either free or owned by exactly one client.
//
// Store performs no locking. Every method must be called with the global
// marketplace lock held, which Market takes on behalf of its callers.
type Store struct {
	supplies    []Supply
	supplySlots *slotIndex

	demands     []Demand
	demandSlots *slotIndex

	watches      []Watch
	watchSlots   *slotIndex
	watchByOwner map[Handle]int
}

// NewStore returns an empty Store with the given table capacities.
func NewStore(maxSupplies, maxDemands, maxWatches int) *Store {
	return &Store{
		supplies:     make([]Supply, maxSupplies),
		supplySlots:  newSlotIndex(maxSupplies),
		demands:      make([]Demand, maxDemands),
		demandSlots:  newSlotIndex(maxDemands),
		watches:      make([]Watch, maxWatches),
		watchSlots:   newSlotIndex(maxWatches),
		watchByOwner: make(map[Handle]int),
	}
}

// InsertSupply places s in the lowest free supply slot and returns the slot.
func (st *Store) InsertSupply(s Supply) (int, error) {
	slot, ok := st.supplySlots.alloc()
	if !ok {
		return -1, fmt.Errorf("%s: %w", TableSupplies, ErrTableFull)
	}
	st.supplies[slot] = s
	return slot, nil
}

// InsertDemand places d in the lowest free demand slot and returns the slot.
func (st *Store) InsertDemand(d Demand) (int, error) {
	slot, ok := st.demandSlots.alloc()
	if !ok {
		return -1, fmt.Errorf("%s: %w", TableDemands, ErrTableFull)
	}
	st.demands[slot] = d
	return slot, nil
}

// InsertWatch replaces the owner's watch, if any, with w. The old watch is
// removed even when the table turns out to be full.
func (st *Store) InsertWatch(w Watch) (int, error) {
	st.RemoveWatch(w.Owner)

	slot, ok := st.watchSlots.alloc()
	if !ok {
		return -1, fmt.Errorf("%s: %w", TableWatches, ErrTableFull)
	}
	st.watches[slot] = w
	st.watchByOwner[w.Owner] = slot
	return slot, nil
}

// RemoveWatch drops the owner's watch. It reports whether one existed.
func (st *Store) RemoveWatch(owner Handle) bool {
	slot, ok := st.watchByOwner[owner]
	if !ok {
		return false
	}
	delete(st.watchByOwner, owner)
	st.watches[slot] = Watch{Owner: NoHandle}
	st.watchSlots.release(slot)
	return true
}

// RemoveSupply frees a supply slot.
func (st *Store) RemoveSupply(slot int) {
	st.supplies[slot] = Supply{Owner: NoHandle}
	st.supplySlots.release(slot)
}

// RemoveDemand frees a demand slot.
func (st *Store) RemoveDemand(slot int) {
	st.demands[slot] = Demand{Owner: NoHandle}
	st.demandSlots.release(slot)
}

// RemoveOwned frees every slot owned by owner in all three tables and returns
// how many entries were removed.
func (st *Store) RemoveOwned(owner Handle) (supplies, demands, watches int) {
	for _, slot := range st.supplySlots.snapshot() {
		if st.supplies[slot].Owner == owner {
			st.RemoveSupply(slot)
			supplies++
		}
	}
	for _, slot := range st.demandSlots.snapshot() {
		if st.demands[slot].Owner == owner {
			st.RemoveDemand(slot)
			demands++
		}
	}
	if st.RemoveWatch(owner) {
		watches++
	}
	return supplies, demands, watches
}

// Supply returns the supply in slot, if occupied. The pointer stays valid
// only while the lock is held and the slot is not released.
func (st *Store) Supply(slot int) (*Supply, bool) {
	if slot < 0 || slot >= len(st.supplies) || !st.supplySlots.occupied(slot) {
		return nil, false
	}
	return &st.supplies[slot], true
}

// Demand returns the demand in slot, if occupied.
func (st *Store) Demand(slot int) (*Demand, bool) {
	if slot < 0 || slot >= len(st.demands) || !st.demandSlots.occupied(slot) {
		return nil, false
	}
	return &st.demands[slot], true
}

// WatchOf returns the owner's watch, if any.
func (st *Store) WatchOf(owner Handle) (Watch, bool) {
	slot, ok := st.watchByOwner[owner]
	if !ok {
		return Watch{}, false
	}
	return st.watches[slot], true
}

// EachSupply calls fn for every occupied supply slot in ascending slot order
// until fn returns false. fn must not insert or remove supplies.
func (st *Store) EachSupply(fn func(slot int, s *Supply) bool) {
	st.supplySlots.ascend(func(slot int) bool {
		return fn(slot, &st.supplies[slot])
	})
}

// EachWatch calls fn for every occupied watch slot in ascending slot order.
func (st *Store) EachWatch(fn func(slot int, w Watch) bool) {
	st.watchSlots.ascend(func(slot int) bool {
		return fn(slot, st.watches[slot])
	})
}

// DemandSlots returns the occupied demand slots in ascending order.
func (st *Store) DemandSlots() []int {
	return st.demandSlots.snapshot()
}

// Supplies returns a copy of the supplies owned by owner, or of every supply
// when owner is NoHandle, in slot order.
func (st *Store) Supplies(owner Handle) []Supply {
	out := make([]Supply, 0)
	st.EachSupply(func(_ int, s *Supply) bool {
		if owner == NoHandle || s.Owner == owner {
			out = append(out, *s)
		}
		return true
	})
	return out
}

// Demands returns a copy of the demands owned by owner, or of every demand
// when owner is NoHandle, in slot order.
func (st *Store) Demands(owner Handle) []Demand {
	out := make([]Demand, 0)
	st.demandSlots.ascend(func(slot int) bool {
		if owner == NoHandle || st.demands[slot].Owner == owner {
			out = append(out, st.demands[slot])
		}
		return true
	})
	return out
}

// Watches returns a copy of every active watch in slot order.
func (st *Store) Watches() []Watch {
	out := make([]Watch, 0, st.watchSlots.len())
	st.EachWatch(func(_ int, w Watch) bool {
		out = append(out, w)
		return true
	})
	return out
}

// Len returns the number of occupied slots per table.
func (st *Store) Len() (supplies, demands, watches int) {
	return st.supplySlots.len(), st.demandSlots.len(), st.watchSlots.len()
}
