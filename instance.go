package nodegraph

import (
	"fmt"
)

// NoInstance is the instance slot of a Node that doesn't occupy a GeometryGroup.
const NoInstance = -1

// InstanceOwner identifies the Node occupying an instance slot. Graph may be nil for occupants that
// track their own slots.
type InstanceOwner struct {
	Graph *NodeGraph
	Node  int
}

// Renumbering records an occupant moving from one instance slot to another after a removal.
type Renumbering struct {
	Owner InstanceOwner
	From  int
	To    int
}

// InstanceAllocator hands out dense instance slots for one GeometryGroup. Occupied slots always form
// [0, ActiveInstanceCount()); removal fills the hole by moving the highest slot down into it.
type InstanceAllocator struct {
	owners    []InstanceOwner
	listeners []func(Renumbering)
}

// AddInstance claims the next free slot for owner and returns it.
func (alloc *InstanceAllocator) AddInstance(owner InstanceOwner) int {
	slot := len(alloc.owners)
	alloc.owners = append(alloc.owners, owner)
	return slot
}

// RemoveInstance frees slot using swap-remove: the occupant of the highest slot is moved into
// the freed one. A moved occupant with a Graph has its Node's instance slot updated before the
// registered OnRenumber listeners are notified, so listeners see the new slot. The renumberings are
// also returned. Removing a slot that isn't allocated panics.
func (alloc *InstanceAllocator) RemoveInstance(slot int) []Renumbering {

	if slot < 0 || slot >= len(alloc.owners) {
		panic(fmt.Sprintf("nodegraph: remove of unallocated instance slot %d (active %d)", slot, len(alloc.owners)))
	}

	last := len(alloc.owners) - 1

	var moved []Renumbering

	if slot != last {
		alloc.owners[slot] = alloc.owners[last]
		moved = append(moved, Renumbering{
			Owner: alloc.owners[slot],
			From:  last,
			To:    slot,
		})
	}

	alloc.owners[last] = InstanceOwner{}
	alloc.owners = alloc.owners[:last]

	for _, r := range moved {
		if r.Owner.Graph != nil {
			r.Owner.Graph.assignSlot(r.Owner.Node, r.To)
		}
		Logger().Debug("instance slot renumbered", "node", r.Owner.Node, "from", r.From, "to", r.To)
		for _, fn := range alloc.listeners {
			fn(r)
		}
	}

	return moved

}

// ActiveInstanceCount returns the number of occupied slots.
func (alloc *InstanceAllocator) ActiveInstanceCount() int {
	return len(alloc.owners)
}

// Owner returns the occupant of slot. It panics if the slot isn't allocated.
func (alloc *InstanceAllocator) Owner(slot int) InstanceOwner {
	if slot < 0 || slot >= len(alloc.owners) {
		panic(fmt.Sprintf("nodegraph: instance slot %d is not allocated (active %d)", slot, len(alloc.owners)))
	}
	return alloc.owners[slot]
}

// OnRenumber registers fn to be called synchronously for each slot move. This is meant for renderers
// that keep a compact per-instance buffer and have to move an entry when its occupant moves.
func (alloc *InstanceAllocator) OnRenumber(fn func(Renumbering)) {
	alloc.listeners = append(alloc.listeners, fn)
}
