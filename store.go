package trellis

import "fmt"

// NodePointer identifies a node in a Hub's storage. It pairs a slot index with
// the generation the slot had when the node was created, so a pointer to a
// reclaimed node never resolves to whatever later reuses the slot.
//
// The zero NodePointer is nil and never resolves.
type NodePointer struct {
	index uint32
	gen   uint32
}

// IsNil reports whether p is the zero pointer.
func (p NodePointer) IsNil() bool {
	return p.gen == 0
}

// Downgrade returns a weak reference to the same node.
func (p NodePointer) Downgrade() WeakPointer {
	return WeakPointer{ptr: p}
}

func (p NodePointer) String() string {
	if p.IsNil() {
		return "node(nil)"
	}
	return fmt.Sprintf("node(%d#%d)", p.index, p.gen)
}

// WeakPointer is a NodePointer that may have been invalidated. It must be
// upgraded through the storage before use; upgrading fails once the node has
// been destroyed.
type WeakPointer struct {
	ptr NodePointer
}

// slotState tracks the lifecycle of a storage slot.
type slotState uint8

const (
	slotFree    slotState = iota // unused, on the free list
	slotLive                     // holds a resolvable node
	slotPending                  // destroyed, awaiting reclamation at the next sync point
)

type slot struct {
	node  node
	gen   uint32
	state slotState
}

// storage is a generational arena of nodes. It is not safe for concurrent use;
// the owning Hub serializes access under its mutex.
type storage struct {
	slots   []slot
	free    []uint32
	pending []uint32
	live    int
}

// create allocates a slot for n and returns its pointer.
func (s *storage) create(n node) NodePointer {
	var idx uint32
	if k := len(s.free); k > 0 {
		idx = s.free[k-1]
		s.free = s.free[:k-1]
	} else {
		s.slots = append(s.slots, slot{})
		idx = uint32(len(s.slots) - 1)
	}
	sl := &s.slots[idx]
	if sl.gen == 0 {
		sl.gen = 1
	}
	sl.node = n
	sl.state = slotLive
	s.live++
	return NodePointer{index: idx, gen: sl.gen}
}

// get returns the live node p points to.
func (s *storage) get(p NodePointer) (*node, bool) {
	if p.IsNil() || int(p.index) >= len(s.slots) {
		return nil, false
	}
	sl := &s.slots[p.index]
	if sl.gen != p.gen || sl.state != slotLive {
		return nil, false
	}
	return &sl.node, true
}

// linked returns the node p points to when it is live or pending. Pending
// nodes are unresolvable for clients but still sit in sibling chains until
// the next sync point, so traversals need them to follow links.
func (s *storage) linked(p NodePointer) (*node, bool) {
	if p.IsNil() || int(p.index) >= len(s.slots) {
		return nil, false
	}
	sl := &s.slots[p.index]
	if sl.gen != p.gen || sl.state == slotFree {
		return nil, false
	}
	return &sl.node, true
}

// mustGet is for Hub-internal lookups whose pointer has already been resolved.
// A miss here is a bookkeeping bug.
func (s *storage) mustGet(p NodePointer) *node {
	n, ok := s.get(p)
	if !ok {
		panic(fmt.Sprintf("trellis: %v is not a live node", p))
	}
	return n
}

func (s *storage) contains(p NodePointer) bool {
	_, ok := s.get(p)
	return ok
}

// upgrade resolves a weak reference.
func (s *storage) upgrade(w WeakPointer) (NodePointer, bool) {
	if !s.contains(w.ptr) {
		return NodePointer{}, false
	}
	return w.ptr, true
}

// release marks a live node as destroyed. It stops resolving immediately; the
// slot is reclaimed by syncPending.
func (s *storage) release(p NodePointer) bool {
	if !s.contains(p) {
		return false
	}
	s.slots[p.index].state = slotPending
	s.pending = append(s.pending, p.index)
	s.live--
	return true
}

// syncPending reclaims every pending slot. unlink is called for each one
// before the slot is freed, while its links are still readable.
func (s *storage) syncPending(unlink func(p NodePointer, n *node)) int {
	count := len(s.pending)
	for _, idx := range s.pending {
		sl := &s.slots[idx]
		if unlink != nil {
			unlink(NodePointer{index: idx, gen: sl.gen}, &sl.node)
		}
		sl.node = node{}
		sl.state = slotFree
		sl.gen++
		if sl.gen == 0 {
			sl.gen = 1
		}
		s.free = append(s.free, idx)
	}
	s.pending = s.pending[:0]
	return count
}

// each calls fn for every live node in slot order until fn returns false.
func (s *storage) each(fn func(p NodePointer, n *node) bool) {
	for i := range s.slots {
		sl := &s.slots[i]
		if sl.state != slotLive {
			continue
		}
		if !fn(NodePointer{index: uint32(i), gen: sl.gen}, &sl.node) {
			return
		}
	}
}

func (s *storage) len() int {
	return s.live
}

func (s *storage) pendingLen() int {
	return len(s.pending)
}
