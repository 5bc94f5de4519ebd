package trellis

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// recordHandler keeps every log record so tests can assert on diagnostics.
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, r.Clone())
	h.mu.Unlock()
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordHandler) messages(level slog.Level) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, r := range h.records {
		if r.Level == level {
			out = append(out, r.Message)
		}
	}
	return out
}

func newTestHub(opts ...Option) (*Hub, *recordHandler) {
	rec := &recordHandler{}
	opts = append([]Option{WithLogger(slog.New(rec))}, opts...)
	return NewHub(opts...), rec
}

// nodeOf returns the live node behind obj. Tests call it between frames only.
func nodeOf(t *testing.T, h *Hub, obj Object) *node {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes.get(obj.Upcast().node)
	require.True(t, ok, "node %v not live", obj.Upcast().node)
	return n
}

// children lists a group's chain in order.
func children(h *Hub, obj Object) []NodePointer {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes.get(obj.Upcast().node)
	if !ok {
		return nil
	}
	var out []NodePointer
	for c := n.firstChild; !c.IsNil(); {
		out = append(out, c)
		cn, ok := h.nodes.linked(c)
		if !ok {
			break
		}
		c = cn.nextSibling
	}
	return out
}

func TestSpawnDefaults(t *testing.T) {
	h, _ := newTestHub()
	e := h.SpawnEmpty()
	n := nodeOf(t, h, e)
	assert.Equal(t, KindEmpty, n.kind)
	assert.True(t, n.visible)
	assert.False(t, n.worldVisible, "world visibility is off until the first update")
	assert.Equal(t, IdentityTransform(), n.transform)
	assert.Equal(t, 1, h.Stats().Live)
}

func TestWorldTransformComposition(t *testing.T) {
	h, _ := newTestHub()
	scene := h.SpawnScene()
	parent := h.SpawnGroup()
	child := h.SpawnEmpty()

	parent.SetScale(2)
	child.SetPosition(mgl32.Vec3{1, 0, 0})
	parent.Add(child)
	scene.Add(parent)
	h.Update()

	n := nodeOf(t, h, child)
	assertVec3(t, "child world position", n.worldTransform.Position, mgl32.Vec3{2, 0, 0})
	assertNear(t, "child world scale", n.worldTransform.Scale, 2)
	assert.True(t, n.worldVisible)
}

func TestVisibilityPropagation(t *testing.T) {
	h, _ := newTestHub()
	scene := h.SpawnScene()
	parent := h.SpawnGroup()
	child := h.SpawnGroup()
	grandchild := h.SpawnEmpty()

	scene.Add(parent)
	parent.Add(child)
	child.Add(grandchild)
	child.SetVisible(false)
	h.Update()

	assert.True(t, nodeOf(t, h, parent).worldVisible)
	assert.False(t, nodeOf(t, h, child).worldVisible)
	assert.False(t, nodeOf(t, h, grandchild).worldVisible)
	assert.True(t, nodeOf(t, h, grandchild).visible, "own flag is untouched")

	child.SetVisible(true)
	h.Update()
	assert.True(t, nodeOf(t, h, grandchild).worldVisible)
}

func TestMessageForDestroyedNodeIsDropped(t *testing.T) {
	h, rec := newTestHub()
	scene := h.SpawnScene()
	keep := h.SpawnEmpty()
	gone := h.SpawnEmpty()
	scene.Add(keep)
	h.Update()
	before := *nodeOf(t, h, keep)

	gone.SetVisible(false)
	h.Destroy(gone)
	require.NotPanics(t, h.ProcessMessages)

	s := h.Stats()
	assert.Equal(t, uint64(1), s.Dropped)
	assert.Equal(t, uint64(1), s.Reclaimed)
	assert.Equal(t, before.transform, nodeOf(t, h, keep).transform)
	assert.Equal(t, before.visible, nodeOf(t, h, keep).visible)
	assert.Empty(t, rec.messages(slog.LevelWarn))
	assert.Empty(t, rec.messages(slog.LevelError))
}

func TestRemoveMissingChildIsReported(t *testing.T) {
	h, rec := newTestHub()
	group := h.SpawnGroup()
	a := h.SpawnEmpty()
	stranger := h.SpawnEmpty()
	group.Add(a)
	h.ProcessMessages()

	group.Remove(stranger)
	h.ProcessMessages()

	assert.Equal(t, []string{"RemoveChild: child not found in chain"}, rec.messages(slog.LevelError))
	assert.Equal(t, []NodePointer{a.Pointer()}, children(h, group))
	assert.Equal(t, uint64(1), h.Stats().StructuralErrors)
}

func TestRemoveChildSplicesChain(t *testing.T) {
	h, rec := newTestHub()
	group := h.SpawnGroup()
	a, b, c := h.SpawnEmpty(), h.SpawnEmpty(), h.SpawnEmpty()
	group.Add(a)
	group.Add(b)
	group.Add(c)
	h.ProcessMessages()
	require.Equal(t, []NodePointer{c.Pointer(), b.Pointer(), a.Pointer()}, children(h, group))

	group.Remove(b)
	h.ProcessMessages()
	assert.Equal(t, []NodePointer{c.Pointer(), a.Pointer()}, children(h, group))
	assert.True(t, nodeOf(t, h, b).parent.IsNil())
	assert.True(t, nodeOf(t, h, b).nextSibling.IsNil())

	group.Remove(c)
	h.ProcessMessages()
	assert.Equal(t, []NodePointer{a.Pointer()}, children(h, group))
	assert.Empty(t, rec.messages(slog.LevelError))
}

func TestEmptySetTransformIsNoOp(t *testing.T) {
	h, _ := newTestHub()
	obj := h.SpawnEmpty()
	obj.SetTransform(mgl32.Vec3{1.25, -3, 7}, mgl32.QuatRotate(0.3, mgl32.Vec3{0, 1, 0}), 0.75)
	h.ProcessMessages()
	before := nodeOf(t, h, obj).transform

	obj.send(opSetTransform{})
	h.ProcessMessages()
	assert.Equal(t, before, nodeOf(t, h, obj).transform)
	assert.Equal(t, uint64(2), h.Stats().Applied)
}

func TestPartialSetTransform(t *testing.T) {
	h, _ := newTestHub()
	obj := h.SpawnEmpty()
	rot := mgl32.QuatRotate(1.1, mgl32.Vec3{1, 0, 0})
	obj.SetTransform(mgl32.Vec3{1, 2, 3}, rot, 4)
	h.ProcessMessages()

	obj.SetPosition(mgl32.Vec3{9, 8, 7})
	h.ProcessMessages()
	tr := nodeOf(t, h, obj).transform
	assert.Equal(t, mgl32.Vec3{9, 8, 7}, tr.Position)
	assert.Equal(t, rot, tr.Orientation)
	assert.Equal(t, float32(4), tr.Scale)

	obj.SetScale(0.5)
	h.ProcessMessages()
	tr = nodeOf(t, h, obj).transform
	assert.Equal(t, mgl32.Vec3{9, 8, 7}, tr.Position)
	assert.Equal(t, rot, tr.Orientation)
	assert.Equal(t, float32(0.5), tr.Scale)
}

func TestEndToEndScenario(t *testing.T) {
	h, rec := newTestHub()
	root := h.SpawnScene()
	g1 := h.SpawnGroup()
	m1 := h.SpawnMesh(NewCuboid(1, 1, 1), LambertMaterial{Color: ColorWhite})

	g1.Add(m1)
	m1.SetPosition(mgl32.Vec3{1, 0, 0})
	g1.SetPosition(mgl32.Vec3{5, 0, 0})
	g1.SetScale(2)
	root.Add(g1)

	h.ProcessMessages()
	h.UpdateGraph()

	n := nodeOf(t, h, m1)
	assertVec3(t, "M1 world position", n.worldTransform.Position, mgl32.Vec3{7, 0, 0})
	assert.True(t, n.worldVisible)
	assert.Equal(t, root.ID(), n.scene)
	assert.Empty(t, rec.messages(slog.LevelWarn))
}

func TestAddChildStillLinkedMoves(t *testing.T) {
	h, rec := newTestHub()
	g1, g2 := h.SpawnGroup(), h.SpawnGroup()
	a, b := h.SpawnEmpty(), h.SpawnEmpty()
	g1.Add(a)
	g1.Add(b)
	h.ProcessMessages()

	// a is still linked into g1's chain.
	g2.Add(a)
	h.ProcessMessages()

	assert.Equal(t, []string{"child still linked, relinking"}, rec.messages(slog.LevelWarn))
	assert.Equal(t, []NodePointer{b.Pointer()}, children(h, g1))
	assert.Equal(t, []NodePointer{a.Pointer()}, children(h, g2))
	assert.Equal(t, g2.Pointer(), nodeOf(t, h, a).parent)
	assert.Equal(t, uint64(1), h.Stats().StructuralWarnings)
}

func TestAddChildCycleRejected(t *testing.T) {
	h, rec := newTestHub()
	outer, inner := h.SpawnGroup(), h.SpawnGroup()
	outer.Add(inner)
	h.ProcessMessages()

	inner.Add(outer)
	outer.Add(outer)
	h.ProcessMessages()

	assert.Len(t, rec.messages(slog.LevelError), 2)
	assert.Equal(t, []NodePointer{inner.Pointer()}, children(h, outer))
	assert.Empty(t, children(h, inner))
}

func TestAddSceneAsChildRejected(t *testing.T) {
	h, rec := newTestHub()
	group := h.SpawnGroup()
	scene := h.SpawnScene()
	group.Add(scene)
	h.ProcessMessages()
	assert.Equal(t, []string{"scene root cannot be a child"}, rec.messages(slog.LevelError))
	assert.Empty(t, children(h, group))
}

func TestContractViolationLogsInReleaseMode(t *testing.T) {
	h, rec := newTestHub()
	empty := h.SpawnEmpty()
	bogus := Mesh{Base: empty}
	bogus.SetMaterial(BasicMaterial{})
	Group{Base: empty}.Add(h.SpawnEmpty())
	h.ProcessMessages()

	assert.Equal(t, []string{"contract violation", "contract violation"}, rec.messages(slog.LevelError))
	assert.Equal(t, uint64(2), h.Stats().ContractViolations)
}

func TestContractViolationPanicsInDebugMode(t *testing.T) {
	h, _ := newTestHub(WithDebug(true))
	light := h.SpawnAmbientLight(ColorWhite, 1)
	Mesh{Base: light.Base}.SetWeights([]float32{1})
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for payload mismatch, got none")
		}
	}()
	h.ProcessMessages()
}

func TestTexelRangeNeedsSpriteMaterial(t *testing.T) {
	h, rec := newTestHub()
	mesh := h.SpawnMesh(NewPlane(1, 1), BasicMaterial{Color: ColorWhite})
	Sprite{Base: mesh.Base}.SetTexelRange([2]int{0, 0}, [2]int{1, 1})
	h.ProcessMessages()
	assert.Equal(t, []string{"contract violation"}, rec.messages(slog.LevelError))
}

func TestVisualOperations(t *testing.T) {
	h, rec := newTestHub()
	skel := h.SpawnSkeleton(nil, nil)
	mesh := h.SpawnMesh(NewPlane(1, 1), BasicMaterial{Color: ColorWhite})

	mesh.SetMaterial(PhongMaterial{Color: ColorBlack, Glossiness: 8})
	mesh.SetSkeleton(skel)
	mesh.SetWeights([]float32{0.5, 0.25, 0, 0, 0, 0, 0, 0, 9, 9})
	h.ProcessMessages()

	v := nodeOf(t, h, mesh).visual
	assert.Equal(t, PhongMaterial{Color: ColorBlack, Glossiness: 8}, v.Material)
	assert.Equal(t, skel.Pointer(), v.Skeleton)
	assert.Equal(t, [MaxTargets]float32{0.5, 0.25}, v.Weights)
	assert.Empty(t, rec.messages(slog.LevelError))
}

func TestLightOperations(t *testing.T) {
	h, _ := newTestHub()
	light := h.SpawnDirectionalLight(ColorWhite, 1)
	sm := &ShadowMap{Width: 16, Height: 16}
	proj := Orthographic{ExtentY: 5, Near: 0.1, Far: 20}
	light.SetColor(Color{R: 1, A: 1}, 0.5)
	light.SetShadow(sm, proj)
	h.ProcessMessages()

	l := nodeOf(t, h, light).light
	assert.Equal(t, Color{R: 1, A: 1}, l.Color)
	assert.Equal(t, float32(0.5), l.Intensity)
	assert.Same(t, sm, l.Shadow.Map)
	assert.Equal(t, proj, l.Shadow.Projection)
}

func TestDanglingParentTreatedAsRoot(t *testing.T) {
	h, rec := newTestHub()
	scene := h.SpawnScene()
	group := h.SpawnGroup()
	child := h.SpawnEmpty()
	scene.Add(group)
	group.Add(child)
	group.SetPosition(mgl32.Vec3{10, 0, 0})
	child.SetPosition(mgl32.Vec3{1, 0, 0})
	h.Update()
	require.True(t, nodeOf(t, h, child).worldVisible)

	// Destroyed but not yet reclaimed: the child's parent no longer resolves.
	h.Destroy(group)
	h.UpdateGraph()
	h.UpdateGraph()

	n := nodeOf(t, h, child)
	assert.False(t, n.worldVisible)
	assertVec3(t, "world position", n.worldTransform.Position, mgl32.Vec3{1, 0, 0})
	assert.Equal(t, []string{"parent not resolvable, treating node as root"}, rec.messages(slog.LevelWarn),
		"warned once per broken link")

	// Reclaiming detaches the child, which becomes a plain root.
	h.Update()
	n = nodeOf(t, h, child)
	assert.True(t, n.parent.IsNil())
	assert.True(t, n.worldVisible)
}

func TestDestroyUnlinksAndDetaches(t *testing.T) {
	h, _ := newTestHub()
	scene := h.SpawnScene()
	before, group, after := h.SpawnEmpty(), h.SpawnGroup(), h.SpawnEmpty()
	kid1, kid2 := h.SpawnEmpty(), h.SpawnEmpty()
	scene.Add(before)
	scene.Add(group)
	scene.Add(after)
	group.Add(kid1)
	group.Add(kid2)
	h.Update()

	h.Destroy(group)
	h.Destroy(group)
	h.Update()

	assert.Equal(t, []NodePointer{after.Pointer(), before.Pointer()}, children(h, scene))
	for _, kid := range []Base{kid1, kid2} {
		n := nodeOf(t, h, kid)
		assert.True(t, n.parent.IsNil())
		assert.True(t, n.nextSibling.IsNil())
	}
	s := h.Stats()
	assert.Equal(t, uint64(1), s.Reclaimed)
	assert.Equal(t, 5, s.Live)
	assert.Equal(t, 0, s.Pending)

	// Reused slots do not revive the old handle.
	fresh := h.SpawnGroup()
	fresh.SetVisible(false)
	group.SetVisible(true)
	h.ProcessMessages()
	assert.False(t, nodeOf(t, h, fresh).visible)
}

func TestDestroyChildThenParentSameFrame(t *testing.T) {
	h, rec := newTestHub()
	scene := h.SpawnScene()
	group := h.SpawnGroup()
	kid := h.SpawnEmpty()
	scene.Add(group)
	group.Add(kid)
	h.Update()

	h.Destroy(kid)
	h.Destroy(group)
	h.Update()

	assert.Empty(t, children(h, scene))
	assert.Equal(t, 1, h.Stats().Live)
	assert.Empty(t, rec.messages(slog.LevelError))
}

func TestClosedHubDropsSends(t *testing.T) {
	h, _ := newTestHub()
	obj := h.SpawnEmpty()
	h.Close()
	require.NotPanics(t, func() {
		obj.SetVisible(false)
		obj.SetPosition(mgl32.Vec3{1, 1, 1})
	})
	h.ProcessMessages()
	assert.True(t, nodeOf(t, h, obj).visible)
	assert.Equal(t, 0, h.Stats().Queued)
}

func TestZeroBaseIsInert(t *testing.T) {
	var b Base
	require.NotPanics(t, func() { b.SetVisible(false) })
	assert.True(t, b.Pointer().IsNil())
}

func TestConcurrentSenders(t *testing.T) {
	h, _ := newTestHub()
	scene := h.SpawnScene()
	const workers, perWorker = 8, 200

	objs := make([]Base, workers)
	for i := range objs {
		objs[i] = h.SpawnEmpty()
		scene.Add(objs[i])
	}

	var g errgroup.Group
	for i := range objs {
		obj := objs[i]
		g.Go(func() error {
			for j := 1; j <= perWorker; j++ {
				obj.SetPosition(mgl32.Vec3{float32(j), 0, 0})
			}
			return nil
		})
	}
	// Frames may run while producers are still sending.
	g.Go(func() error {
		for i := 0; i < 10; i++ {
			h.Update()
		}
		return nil
	})
	require.NoError(t, g.Wait())
	h.Update()

	for _, obj := range objs {
		assertVec3(t, "final position", nodeOf(t, h, obj).worldTransform.Position, mgl32.Vec3{perWorker, 0, 0})
	}
	assert.Equal(t, uint64(workers*perWorker+workers), h.Stats().Applied)
}

type eventRecorder struct {
	events []GraphEvent
}

func (r *eventRecorder) Emit(ev GraphEvent) { r.events = append(r.events, ev) }

func TestEventSink(t *testing.T) {
	rec := &eventRecorder{}
	h, _ := newTestHub(WithEventSink(rec))
	group := h.SpawnGroup()
	kid := h.SpawnEmpty()
	group.Add(kid)
	h.Update()
	group.Remove(kid)
	h.Destroy(kid)
	h.Update()

	var types []GraphEventType
	for _, ev := range rec.events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []GraphEventType{EventSpawned, EventSpawned, EventChildAdded, EventReclaimed}, types,
		"remove of a destroyed child is a dropped message")
	assert.Equal(t, group.Pointer(), rec.events[2].Parent)
	assert.Equal(t, KindEmpty, rec.events[3].Kind)
}

func TestSkeletonJoints(t *testing.T) {
	h, _ := newTestHub()
	scene := h.SpawnScene()
	rig := h.SpawnGroup()
	b0, b1 := h.SpawnBone(0), h.SpawnBone(1)
	skel := h.SpawnSkeleton([]Bone{b0, b1}, []mgl32.Mat4{mgl32.Translate3D(-1, 0, 0)})
	scene.Add(rig)
	rig.Add(b0)
	rig.Add(b1)
	rig.Add(skel)
	b0.SetPosition(mgl32.Vec3{1, 0, 0})
	b1.SetPosition(mgl32.Vec3{0, 2, 0})
	rig.SetPosition(mgl32.Vec3{0, 0, 5})
	h.Update()

	joints := nodeOf(t, h, skel).skeleton.Joints
	require.Len(t, joints, 2)
	assert.True(t, joints[0].ApproxEqualThreshold(mgl32.Ident4(), epsilon), "bone at its bind pose: %v", joints[0])
	assert.True(t, joints[1].ApproxEqualThreshold(mgl32.Translate3D(0, 2, 0), epsilon), "missing inverse bind: %v", joints[1])

	h.Destroy(b1)
	h.Update()
	joints = nodeOf(t, h, skel).skeleton.Joints
	assert.Equal(t, mgl32.Ident4(), joints[1])
}

func TestUpdateCountsFramesAndLogsInDebug(t *testing.T) {
	h, rec := newTestHub(WithDebug(true))
	h.Update()
	h.Update()
	assert.Equal(t, uint64(2), h.Stats().Frames)
	assert.Equal(t, []string{"frame", "frame"}, rec.messages(slog.LevelDebug))
}
