package trellis

import "github.com/google/uuid"

// Kind tells which payload a node carries. A node keeps its kind for its whole
// lifetime.
type Kind uint8

const (
	KindEmpty    Kind = iota // pure grouping point with no content (also bones and cameras)
	KindGroup                // owns a child chain
	KindScene                // root of a scene; owns a child chain
	KindVisual               // geometry + material + draw parameters
	KindLight                // color, intensity, light kind
	KindSkeleton             // bones + inverse bind matrices
	KindAudio                // playback state
)

var kindNames = [...]string{
	KindEmpty:    "empty",
	KindGroup:    "group",
	KindScene:    "scene",
	KindVisual:   "visual",
	KindLight:    "light",
	KindSkeleton: "skeleton",
	KindAudio:    "audio",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// hasChildren reports whether nodes of this kind own a child chain.
func (k Kind) hasChildren() bool {
	return k == KindGroup || k == KindScene
}

// node is the fat scene graph entry owned by the Hub's storage. Client code
// never sees it; it holds handles (Base) instead.
//
// A single struct is used for every kind. Only the payload pointer matching
// kind is non-nil.
type node struct {
	kind Kind

	visible      bool
	worldVisible bool

	transform      Transform
	worldTransform Transform

	// Hierarchy. parent is bookkeeping for re-parenting, destruction and
	// dangling-parent detection; the authoritative structure is the chain
	// starting at the parent's firstChild and following nextSibling.
	parent      NodePointer
	nextSibling NodePointer
	firstChild  NodePointer

	// scene is the uid of a scene root, or the scene the node was last reached
	// from during a traversal (uuid.Nil when detached).
	scene uuid.UUID

	// pass is the traversal pass that last computed the world state.
	pass uint64
	// dangling is the unresolvable parent last reported, so the warning is
	// logged once per broken link rather than every frame.
	dangling NodePointer

	visual   *VisualData
	light    *LightData
	skeleton *SkeletonData
	audio    *AudioData
}

// newNode returns a node with identity transform, visible, and not yet
// world-visible (until the first traversal).
func newNode(kind Kind) node {
	return node{
		kind:           kind,
		visible:        true,
		worldVisible:   false,
		transform:      IdentityTransform(),
		worldTransform: IdentityTransform(),
	}
}

// Node is a snapshot of a scene node's state, returned by SyncGuard.Resolve.
// World fields are only meaningful immediately after a frame update.
type Node struct {
	Kind Kind
	// Transform is relative to the parent.
	Transform Transform
	// WorldTransform is relative to the world origin.
	WorldTransform Transform
	// Visible is the node's own flag.
	Visible bool
	// WorldVisible is true when the node and every ancestor are visible.
	WorldVisible bool
	// Scene is the uid of the scene the node was last reached from.
	Scene uuid.UUID
}

func (n *node) snapshot() Node {
	return Node{
		Kind:           n.kind,
		Transform:      n.transform,
		WorldTransform: n.worldTransform,
		Visible:        n.visible,
		WorldVisible:   n.worldVisible,
		Scene:          n.scene,
	}
}
