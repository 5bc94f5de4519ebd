package trellis

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger for diagnostics. The default is slog.Default()
// tagged with lib=trellis.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// WithDebug enables debug mode: contract violations panic and per-frame
// timings are logged.
func WithDebug(enabled bool) Option {
	return func(h *Hub) { h.debug = enabled }
}

// WithEventSink forwards graph events to sink.
func WithEventSink(sink EventSink) Option {
	return func(h *Hub) { h.sink = sink }
}

// Stats are cumulative counters plus current sizes.
type Stats struct {
	Frames             uint64
	Applied            uint64
	Dropped            uint64
	StructuralWarnings uint64
	StructuralErrors   uint64
	ContractViolations uint64
	Reclaimed          uint64
	Live               int
	Pending            int
	Queued             int
}

// Hub owns the scene graph. Handles never touch it directly: they queue
// messages that the Hub applies once per frame in ProcessMessages, after
// which UpdateGraph recomputes world transforms and visibility.
//
// All Hub methods are safe for concurrent use, but they take the Hub lock,
// so they must not be called while a SyncGuard from the same Hub is held.
type Hub struct {
	mu    sync.Mutex
	nodes storage
	tx    *mailbox
	spare []message

	log   *slog.Logger
	debug bool
	sink  EventSink

	scenes []NodePointer
	pass   uint64
	frame  []propFrame
	stats  Stats
}

// NewHub creates an empty Hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		tx:  newMailbox(),
		log: slog.Default().With("lib", "trellis"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Close stops accepting messages. Handles remain usable; their sends are
// dropped.
func (h *Hub) Close() {
	h.tx.close()
}

// Stats returns a snapshot of the Hub counters.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.stats
	s.Live = h.nodes.len()
	s.Pending = h.nodes.pendingLen()
	s.Queued = h.tx.len()
	return s
}

func (h *Hub) emit(ev GraphEvent) {
	if h.sink == nil {
		return
	}
	ev.Frame = h.pass
	h.sink.Emit(ev)
}

func (h *Hub) spawn(n node) Base {
	h.mu.Lock()
	defer h.mu.Unlock()
	ptr := h.nodes.create(n)
	if n.kind == KindScene {
		h.scenes = append(h.scenes, ptr)
	}
	h.emit(GraphEvent{Type: EventSpawned, Node: ptr, Kind: n.kind})
	return Base{node: ptr, tx: h.tx}
}

// SpawnEmpty creates a node with no payload.
func (h *Hub) SpawnEmpty() Base {
	return h.spawn(newNode(KindEmpty))
}

// SpawnGroup creates an empty group.
func (h *Hub) SpawnGroup() Group {
	return Group{Base: h.spawn(newNode(KindGroup))}
}

// SpawnVisual creates a visual node with the given payload.
func (h *Hub) SpawnVisual(data VisualData) Base {
	n := newNode(KindVisual)
	n.visual = &data
	return h.spawn(n)
}

// SpawnMesh creates a mesh from shared geometry and a material.
func (h *Hub) SpawnMesh(geom *Geometry, mat Material) Mesh {
	return Mesh{Base: h.SpawnVisual(VisualData{Geometry: geom, Material: mat})}
}

// SpawnSprite creates a unit-wide quad showing tex. The quad height follows
// the texture aspect ratio.
func (h *Hub) SpawnSprite(tex Texture) Sprite {
	height := float32(1)
	if r := tex.Region(); r.Dx() > 0 {
		height = float32(r.Dy()) / float32(r.Dx())
	}
	return Sprite{Base: h.SpawnVisual(VisualData{
		Geometry: NewPlane(1, height),
		Material: SpriteMaterial{Map: tex},
		Blend:    BlendNormal,
	})}
}

// SpawnLight creates a light node with the given payload.
func (h *Hub) SpawnLight(data LightData) Light {
	n := newNode(KindLight)
	n.light = &data
	return Light{Base: h.spawn(n)}
}

// SpawnAmbientLight creates a light that shades every surface evenly.
func (h *Hub) SpawnAmbientLight(c Color, intensity float32) Light {
	return h.SpawnLight(LightData{Kind: LightAmbient, Color: c, Intensity: intensity})
}

// SpawnDirectionalLight creates a light shining along its -Z axis.
func (h *Hub) SpawnDirectionalLight(c Color, intensity float32) Light {
	return h.SpawnLight(LightData{Kind: LightDirectional, Color: c, Intensity: intensity})
}

// SpawnHemisphereLight creates a sky/ground light.
func (h *Hub) SpawnHemisphereLight(sky, ground Color, intensity float32) Light {
	return h.SpawnLight(LightData{Kind: LightHemisphere, Color: sky, GroundColor: ground, Intensity: intensity})
}

// SpawnPointLight creates a light radiating from its position.
func (h *Hub) SpawnPointLight(c Color, intensity float32) Light {
	return h.SpawnLight(LightData{Kind: LightPoint, Color: c, Intensity: intensity})
}

// SpawnBone creates a bone with the given joint index.
func (h *Hub) SpawnBone(index int) Bone {
	return Bone{Base: h.SpawnEmpty(), Index: index}
}

// SpawnSkeleton creates a skeleton over bones. inverseBinds is indexed like
// bones; missing entries are treated as the identity.
func (h *Hub) SpawnSkeleton(bones []Bone, inverseBinds []mgl32.Mat4) Skeleton {
	data := &SkeletonData{
		Bones:        make([]NodePointer, len(bones)),
		InverseBinds: append([]mgl32.Mat4(nil), inverseBinds...),
		Joints:       make([]mgl32.Mat4, len(bones)),
	}
	for i, b := range bones {
		data.Bones[i] = b.node
		data.Joints[i] = mgl32.Ident4()
	}
	n := newNode(KindSkeleton)
	n.skeleton = data
	return Skeleton{Base: h.spawn(n)}
}

// SpawnAudioSource creates an audio source playing through sink.
func (h *Hub) SpawnAudioSource(sink AudioSink) AudioSource {
	n := newNode(KindAudio)
	n.audio = &AudioData{Sink: sink}
	return AudioSource{Base: h.spawn(n)}
}

// SpawnPerspectiveCamera creates a camera with a perspective projection. A
// zero far plane gives an infinite frustum.
func (h *Hub) SpawnPerspectiveCamera(fovY, near, far float32) Camera {
	return Camera{Base: h.SpawnEmpty(), Projection: Perspective{FovY: fovY, Near: near, Far: far}}
}

// SpawnOrthographicCamera creates a camera with an orthographic projection.
func (h *Hub) SpawnOrthographicCamera(center mgl32.Vec2, extentY, near, far float32) Camera {
	return Camera{Base: h.SpawnEmpty(), Projection: Orthographic{Center: center, ExtentY: extentY, Near: near, Far: far}}
}

// Destroy removes obj from the graph. Its handles stop resolving at once and
// messages still queued for it are dropped. The node is unlinked from its
// parent and its children are detached at the end of the next
// ProcessMessages. Destroying a node twice is a no-op.
func (h *Hub) Destroy(obj Object) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nodes.release(obj.Upcast().node)
}

// Update runs one frame: apply pending messages, recompute world state, then
// advance audio playback.
func (h *Hub) Update() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.update()
}

func (h *Hub) update() {
	start := time.Now()
	applied, dropped := h.stats.Applied, h.stats.Dropped
	h.processMessages()
	processed := time.Now()
	h.updateGraph()
	h.updateAudio()
	h.stats.Frames++
	if h.debug {
		h.debugLog(frameStats{
			process: processed.Sub(start),
			graph:   time.Since(processed),
			applied: h.stats.Applied - applied,
			dropped: h.stats.Dropped - dropped,
			live:    h.nodes.len(),
		})
	}
}

// ProcessMessages applies every queued message without waiting for more,
// then reclaims destroyed nodes. Messages addressed to destroyed nodes are
// dropped silently.
func (h *Hub) ProcessMessages() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processMessages()
}

func (h *Hub) processMessages() {
	msgs := h.tx.drain(h.spare)
	for i := range msgs {
		h.apply(msgs[i])
		msgs[i] = message{}
	}
	h.spare = msgs[:0]
	h.syncPending()
}

func (h *Hub) apply(msg message) {
	ptr, ok := h.nodes.upgrade(msg.target)
	if !ok {
		h.stats.Dropped++
		return
	}
	n := h.nodes.mustGet(ptr)
	h.stats.Applied++

	switch op := msg.op.(type) {
	case opAddChild:
		h.addChild(ptr, n, op.child)
	case opRemoveChild:
		h.removeChild(ptr, n, op.child)
	case opSetVisible:
		n.visible = op.visible
	case opSetTransform:
		if op.position != nil {
			n.transform.Position = *op.position
		}
		if op.orientation != nil {
			n.transform.Orientation = *op.orientation
		}
		if op.scale != nil {
			n.transform.Scale = *op.scale
		}
	case opSetMaterial:
		if h.expect(ptr, n, KindVisual, op) {
			n.visual.Material = op.material
		}
	case opSetSkeleton:
		if h.expect(ptr, n, KindVisual, op) {
			n.visual.Skeleton = op.skeleton
		}
	case opSetWeights:
		if h.expect(ptr, n, KindVisual, op) {
			n.visual.Weights = op.weights
		}
	case opSetTexelRange:
		if !h.expect(ptr, n, KindVisual, op) {
			return
		}
		sm, ok := n.visual.Material.(SpriteMaterial)
		if !ok {
			h.contractViolation(ptr, "SetTexelRange on %T material", n.visual.Material)
			return
		}
		sm.Map.SetTexelRange(op.base, op.size)
		n.visual.Material = sm
	case opSetShadow:
		if h.expect(ptr, n, KindLight, op) {
			n.light.Shadow = op.shadow
		}
	case opSetLightColor:
		if h.expect(ptr, n, KindLight, op) {
			n.light.Color = op.color
			n.light.Intensity = op.intensity
		}
	case opAudio:
		if h.expect(ptr, n, KindAudio, op) {
			h.applyAudio(ptr, n.audio, op)
		}
	default:
		h.contractViolation(ptr, "unknown operation %T", msg.op)
	}
}

// expect checks that the target carries the payload op needs.
func (h *Hub) expect(ptr NodePointer, n *node, kind Kind, op operation) bool {
	if n.kind == kind {
		return true
	}
	h.contractViolation(ptr, "%s on %s node, want %s", op.opName(), n.kind, kind)
	return false
}

func (h *Hub) addChild(parentPtr NodePointer, parent *node, childPtr NodePointer) {
	if !parent.kind.hasChildren() {
		h.contractViolation(parentPtr, "AddChild on %s node", parent.kind)
		return
	}
	child, ok := h.nodes.get(childPtr)
	if !ok {
		// Child destroyed before the message landed.
		h.stats.Dropped++
		return
	}
	if child.kind == KindScene {
		h.stats.StructuralErrors++
		h.log.Error("scene root cannot be a child", "parent", parentPtr, "child", childPtr)
		return
	}
	if h.isAncestor(childPtr, parentPtr) {
		h.stats.StructuralErrors++
		h.log.Error("AddChild would create a cycle", "parent", parentPtr, "child", childPtr)
		return
	}
	if !child.parent.IsNil() || !child.nextSibling.IsNil() {
		h.stats.StructuralWarnings++
		h.log.Warn("child still linked, relinking",
			"child", childPtr, "old_parent", child.parent, "new_parent", parentPtr)
		if old, ok := h.nodes.linked(child.parent); ok {
			h.unlinkChild(old, childPtr)
		}
		child.parent = NodePointer{}
		child.nextSibling = NodePointer{}
	}
	child.nextSibling = parent.firstChild
	child.parent = parentPtr
	parent.firstChild = childPtr
	h.emit(GraphEvent{Type: EventChildAdded, Node: childPtr, Kind: child.kind, Parent: parentPtr})
}

func (h *Hub) removeChild(parentPtr NodePointer, parent *node, childPtr NodePointer) {
	if !parent.kind.hasChildren() {
		h.contractViolation(parentPtr, "RemoveChild on %s node", parent.kind)
		return
	}
	child, ok := h.nodes.get(childPtr)
	if !ok {
		h.stats.Dropped++
		return
	}
	if !h.unlinkChild(parent, childPtr) {
		h.stats.StructuralErrors++
		h.log.Error("RemoveChild: child not found in chain", "parent", parentPtr, "child", childPtr)
		return
	}
	h.emit(GraphEvent{Type: EventChildRemoved, Node: childPtr, Kind: child.kind, Parent: parentPtr})
}

// unlinkChild splices childPtr out of parent's child chain and clears its
// links. It reports whether the child was found.
func (h *Hub) unlinkChild(parent *node, childPtr NodePointer) bool {
	var prev *node
	for cur, steps := parent.firstChild, 0; !cur.IsNil(); steps++ {
		n, ok := h.nodes.linked(cur)
		if !ok || steps > len(h.nodes.slots) {
			return false
		}
		if cur == childPtr {
			if prev == nil {
				parent.firstChild = n.nextSibling
			} else {
				prev.nextSibling = n.nextSibling
			}
			n.nextSibling = NodePointer{}
			n.parent = NodePointer{}
			return true
		}
		prev = n
		cur = n.nextSibling
	}
	return false
}

// isAncestor reports whether a is p or one of p's ancestors.
func (h *Hub) isAncestor(a, p NodePointer) bool {
	for steps := 0; !p.IsNil() && steps <= len(h.nodes.slots); steps++ {
		if p == a {
			return true
		}
		n, ok := h.nodes.linked(p)
		if !ok {
			return false
		}
		p = n.parent
	}
	return false
}

// syncPending reclaims destroyed nodes: each is unlinked from its parent's
// chain and its children become detached roots.
func (h *Hub) syncPending() {
	if h.nodes.pendingLen() == 0 {
		return
	}
	n := h.nodes.syncPending(func(p NodePointer, n *node) {
		if parent, ok := h.nodes.linked(n.parent); ok {
			h.unlinkChild(parent, p)
		}
		for c, steps := n.firstChild, 0; !c.IsNil() && steps <= len(h.nodes.slots); steps++ {
			cn, ok := h.nodes.linked(c)
			if !ok {
				break
			}
			next := cn.nextSibling
			cn.parent = NodePointer{}
			cn.nextSibling = NodePointer{}
			c = next
		}
		n.firstChild = NodePointer{}
		if n.kind == KindScene {
			h.dropScene(p)
		}
		h.emit(GraphEvent{Type: EventReclaimed, Node: p, Kind: n.kind})
	})
	h.stats.Reclaimed += uint64(n)
}

func (h *Hub) dropScene(p NodePointer) {
	for i, s := range h.scenes {
		if s == p {
			h.scenes = append(h.scenes[:i], h.scenes[i+1:]...)
			return
		}
	}
}

// propFrame is a pending visit during world state propagation.
type propFrame struct {
	ptr           NodePointer
	parentWorld   Transform
	parentVisible bool
	hasParent     bool
	followSibling bool
	depth         int
}

// UpdateGraph recomputes world transforms and visibility for every live node.
// Each scene is walked depth-first, parents before children and children
// before later siblings. Nodes not reachable from a scene are handled from
// their topmost ancestor; a node whose parent no longer resolves is treated as
// its own root with world visibility off.
func (h *Hub) UpdateGraph() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updateGraph()
}

func (h *Hub) updateGraph() {
	h.pass++
	for _, root := range h.scenes {
		n, ok := h.nodes.get(root)
		if !ok {
			continue
		}
		h.propagate(root, n.scene, Transform{}, true, false)
	}

	h.nodes.each(func(p NodePointer, n *node) bool {
		if n.pass == h.pass {
			return true
		}
		top, topNode := h.topmost(p, n)
		if topNode.parent.IsNil() {
			h.propagate(top, uuid.Nil, Transform{}, true, false)
			return true
		}
		switch parent, ok := h.nodes.get(topNode.parent); {
		case ok:
			// Parent was reached but its chain does not lead here.
			h.stats.StructuralWarnings++
			h.log.Warn("node missing from parent's child chain", "node", top, "parent", topNode.parent)
			h.propagate(top, parent.scene, parent.worldTransform, parent.worldVisible, true)
		default:
			if topNode.dangling != topNode.parent {
				topNode.dangling = topNode.parent
				h.stats.StructuralWarnings++
				h.log.Warn("parent not resolvable, treating node as root", "node", top, "parent", topNode.parent)
			}
			// Root rule with visibility forced off.
			h.propagate(top, uuid.Nil, IdentityTransform(), false, true)
		}
		return true
	})

	h.nodes.each(func(_ NodePointer, n *node) bool {
		if n.kind == KindSkeleton {
			h.updateJoints(n)
		}
		return true
	})
}

// topmost climbs parent links from p while the parent is live and was not
// reached this pass.
func (h *Hub) topmost(p NodePointer, n *node) (NodePointer, *node) {
	for steps := 0; steps <= len(h.nodes.slots); steps++ {
		parent, ok := h.nodes.get(n.parent)
		if !ok || parent.pass == h.pass {
			return p, n
		}
		p, n = n.parent, parent
	}
	return p, n
}

// propagate computes world state for root and everything reachable below it.
// When hasParent is set, root composes with parentWorld/parentVisible instead
// of taking the root rule.
func (h *Hub) propagate(root NodePointer, scene uuid.UUID, parentWorld Transform, parentVisible, hasParent bool) {
	stack := append(h.frame[:0], propFrame{
		ptr:           root,
		parentWorld:   parentWorld,
		parentVisible: parentVisible,
		hasParent:     hasParent,
	})
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n, ok := h.nodes.linked(f.ptr)
		if !ok {
			continue
		}
		if f.followSibling && !n.nextSibling.IsNil() {
			next := f
			next.ptr = n.nextSibling
			stack = append(stack, next)
		}
		if _, live := h.nodes.get(f.ptr); !live || n.pass == h.pass {
			// Destroyed but not yet reclaimed, or already reached.
			continue
		}

		if f.hasParent {
			n.worldTransform = f.parentWorld.Concat(n.transform)
			n.worldVisible = f.parentVisible && n.visible
		} else {
			n.worldTransform = n.transform
			n.worldVisible = n.visible
		}
		if n.kind == KindScene {
			scene = n.scene
		} else {
			n.scene = scene
		}
		n.pass = h.pass

		if h.debug {
			h.debugCheckDepth(f.ptr, f.depth)
		}
		if n.kind.hasChildren() && !n.firstChild.IsNil() {
			stack = append(stack, propFrame{
				ptr:           n.firstChild,
				parentWorld:   n.worldTransform,
				parentVisible: n.worldVisible,
				hasParent:     true,
				followSibling: true,
				depth:         f.depth + 1,
			})
		}
	}
	h.frame = stack[:0]
}

func (h *Hub) updateAudio() {
	h.nodes.each(func(_ NodePointer, n *node) bool {
		if n.kind == KindAudio && n.audio.Sink != nil {
			n.audio.Sink.Update()
		}
		return true
	})
}

func (h *Hub) applyAudio(ptr NodePointer, a *AudioData, op opAudio) {
	if a.Sink == nil {
		return
	}
	switch op.cmd {
	case audioAppend:
		if err := a.Sink.Append(op.clip); err != nil {
			h.log.Warn("audio append failed", "node", ptr, "err", err)
		}
	case audioPause:
		a.Sink.Pause()
	case audioResume:
		a.Sink.Resume()
	case audioStop:
		a.Sink.Stop()
	case audioVolume:
		a.Sink.SetVolume(op.volume)
	}
}
