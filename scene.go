package trellis

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Background is what the renderer clears to before drawing a scene. A non-nil
// Texture is stretched over the screen; otherwise Color is used.
type Background struct {
	Color   Color
	Texture *Texture
}

// Scene is the root group of a scene graph. Every node reached from it during
// a frame update is tagged with the scene's ID.
type Scene struct {
	Group
	Background Background

	hub *Hub
	id  uuid.UUID
}

// SpawnScene creates a new scene root.
func (h *Hub) SpawnScene() *Scene {
	id := uuid.New()
	n := newNode(KindScene)
	n.scene = id
	return &Scene{
		Group:      Group{Base: h.spawn(n)},
		Background: Background{Color: ColorBlack},
		hub:        h,
		id:         id,
	}
}

// ID returns the scene's unique ID.
func (s *Scene) ID() uuid.UUID { return s.id }

// Hub returns the Hub that owns the scene.
func (s *Scene) Hub() *Hub { return s.hub }

// SyncGuard locks the Hub, runs a frame update and returns a guard for
// reading the synchronized graph. Handles may keep sending while the guard is
// held; their messages are applied on the next update. Call Release when done.
func (s *Scene) SyncGuard() *SyncGuard {
	s.hub.mu.Lock()
	s.hub.update()
	return &SyncGuard{hub: s.hub, scene: s}
}

// SyncGuard is exclusive access to a synchronized scene graph.
type SyncGuard struct {
	hub      *Hub
	scene    *Scene
	released bool
}

// Release unlocks the Hub. Further calls are no-ops.
func (g *SyncGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.hub.mu.Unlock()
}

func (g *SyncGuard) lookup(obj Object) (*node, error) {
	ptr := obj.Upcast().node
	n, ok := g.hub.nodes.get(ptr)
	if !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "resolve %v", ptr)
	}
	if n.scene != g.scene.id {
		return nil, errors.Wrapf(ErrForeignNode, "resolve %v in scene %v", ptr, g.scene.id)
	}
	return n, nil
}

// Resolve returns a snapshot of obj's node. It fails with ErrNodeNotFound if
// the node was destroyed and ErrForeignNode if the node was not reached from
// this scene in the last update.
func (g *SyncGuard) Resolve(obj Object) (Node, error) {
	n, err := g.lookup(obj)
	if err != nil {
		return Node{}, err
	}
	return n.snapshot(), nil
}

// Visual returns a copy of a visual node's payload.
func (g *SyncGuard) Visual(obj Object) (VisualData, error) {
	n, err := g.lookup(obj)
	if err != nil {
		return VisualData{}, err
	}
	if n.visual == nil {
		return VisualData{}, errors.Errorf("trellis: %v is a %s node, not visual", obj.Upcast().node, n.kind)
	}
	return *n.visual, nil
}

// Light returns a copy of a light node's payload.
func (g *SyncGuard) Light(obj Object) (LightData, error) {
	n, err := g.lookup(obj)
	if err != nil {
		return LightData{}, err
	}
	if n.light == nil {
		return LightData{}, errors.Errorf("trellis: %v is a %s node, not light", obj.Upcast().node, n.kind)
	}
	return *n.light, nil
}

// Joints returns a copy of a skeleton's joint matrices.
func (g *SyncGuard) Joints(obj Object) ([]mgl32.Mat4, error) {
	n, err := g.lookup(obj)
	if err != nil {
		return nil, err
	}
	if n.skeleton == nil {
		return nil, errors.Errorf("trellis: %v is a %s node, not skeleton", obj.Upcast().node, n.kind)
	}
	return append([]mgl32.Mat4(nil), n.skeleton.Joints...), nil
}

// Walk returns a walker over the whole scene. It yields every node it
// reaches, including the first hidden node on each path; nothing beneath a
// hidden node is visited.
func (g *SyncGuard) Walk() *TreeWalker {
	return newWalker(g.hub, g.scene.node, false)
}

// WalkVisible is Walk restricted to world-visible nodes. The renderer uses it.
func (g *SyncGuard) WalkVisible() *TreeWalker {
	return newWalker(g.hub, g.scene.node, true)
}

// WalkFrom walks the subtree rooted at obj, yielding hidden nodes like Walk.
func (g *SyncGuard) WalkFrom(obj Object) *TreeWalker {
	return newWalker(g.hub, obj.Upcast().node, false)
}
