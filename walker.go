package trellis

import (
	"iter"

	"github.com/google/uuid"
)

// WalkedNode is one node produced by a TreeWalker. The payload pointers refer
// to the Hub's own data and are only valid while the SyncGuard that created
// the walker is held.
type WalkedNode struct {
	Pointer        NodePointer
	Kind           Kind
	Visible        bool
	WorldTransform Transform
	WorldVisible   bool
	Scene          uuid.UUID

	Visual   *VisualData
	Light    *LightData
	Skeleton *SkeletonData
	Audio    *AudioData
}

type walkFrame struct {
	ptr           NodePointer
	parentWorld   Transform
	parentVisible bool
	hasParent     bool
	followSibling bool
	scene         uuid.UUID
}

// TreeWalker is a depth-first cursor over the subtree of a start node. It
// computes world transforms and visibility as it descends and stores them
// back into the graph. Descent stops beneath any node whose own visible flag
// is false; that node's later siblings are still visited.
//
// A TreeWalker is single use and not safe for concurrent use. It borrows the
// Hub locked by its SyncGuard and must be dropped before the guard is
// released.
type TreeWalker struct {
	hub         *Hub
	stack       []walkFrame
	onlyVisible bool
}

// newWalker starts at start. The start node composes with its parent's
// current world state when it has one; a parent that no longer resolves makes
// the start a root with world visibility off.
func newWalker(h *Hub, start NodePointer, onlyVisible bool) *TreeWalker {
	w := &TreeWalker{hub: h, onlyVisible: onlyVisible}
	n, ok := h.nodes.get(start)
	if !ok {
		return w
	}
	f := walkFrame{ptr: start, scene: n.scene}
	if !n.parent.IsNil() {
		f.hasParent = true
		f.parentWorld = IdentityTransform()
		if parent, ok := h.nodes.get(n.parent); ok {
			f.parentWorld = parent.worldTransform
			f.parentVisible = parent.worldVisible
		}
	}
	w.stack = append(w.stack, f)
	return w
}

// Next returns the next node, or false once the walk is exhausted.
func (w *TreeWalker) Next() (WalkedNode, bool) {
	for len(w.stack) > 0 {
		f := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]

		n, ok := w.hub.nodes.linked(f.ptr)
		if !ok {
			continue
		}
		if f.followSibling && !n.nextSibling.IsNil() {
			next := f
			next.ptr = n.nextSibling
			w.stack = append(w.stack, next)
		}
		if _, live := w.hub.nodes.get(f.ptr); !live {
			continue
		}

		if f.hasParent {
			n.worldTransform = f.parentWorld.Concat(n.transform)
			n.worldVisible = f.parentVisible && n.visible
		} else {
			n.worldTransform = n.transform
			n.worldVisible = n.visible
		}
		scene := f.scene
		if n.kind == KindScene {
			scene = n.scene
		} else {
			n.scene = scene
		}

		if n.visible && n.kind.hasChildren() && !n.firstChild.IsNil() {
			w.stack = append(w.stack, walkFrame{
				ptr:           n.firstChild,
				parentWorld:   n.worldTransform,
				parentVisible: n.worldVisible,
				hasParent:     true,
				followSibling: true,
				scene:         scene,
			})
		}

		if w.onlyVisible && !n.worldVisible {
			continue
		}
		return WalkedNode{
			Pointer:        f.ptr,
			Kind:           n.kind,
			Visible:        n.visible,
			WorldTransform: n.worldTransform,
			WorldVisible:   n.worldVisible,
			Scene:          scene,
			Visual:         n.visual,
			Light:          n.light,
			Skeleton:       n.skeleton,
			Audio:          n.audio,
		}, true
	}
	return WalkedNode{}, false
}

// All drains the walker as an iterator.
func (w *TreeWalker) All() iter.Seq[WalkedNode] {
	return func(yield func(WalkedNode) bool) {
		for {
			wn, ok := w.Next()
			if !ok || !yield(wn) {
				return
			}
		}
	}
}
