package trellis

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

func tweenTarget(t *testing.T) (*Hub, *Scene, Base) {
	t.Helper()
	h, _ := newTestHub()
	scene := h.SpawnScene()
	obj := h.SpawnEmpty()
	scene.Add(obj)
	return h, scene, obj
}

func TestTweenPositionReachesTarget(t *testing.T) {
	h, _, obj := tweenTarget(t)

	g := TweenPosition(obj, mgl32.Vec3{10, 20, 0}, mgl32.Vec3{100, 200, -5}, 1.0, ease.Linear)

	// Exact halves avoid float32 accumulation drift.
	g.Update(0.5)
	g.Update(0.5)
	h.Update()

	if !g.Done {
		t.Fatal("expected Done after full duration")
	}
	assertVec3(t, "position", nodeOf(t, h, obj).transform.Position, mgl32.Vec3{100, 200, -5})
}

func TestTweenPositionMidway(t *testing.T) {
	h, _, obj := tweenTarget(t)

	g := TweenPosition(obj, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{10, 0, 0}, 1.0, ease.Linear)
	g.Update(0.5)
	h.Update()

	if g.Done {
		t.Fatal("Done before the duration elapsed")
	}
	if x := nodeOf(t, h, obj).transform.Position.X(); math.Abs(float64(x)-5) > 0.01 {
		t.Errorf("X = %f, want ~5", x)
	}
}

func TestTweenScaleReachesTarget(t *testing.T) {
	h, _, obj := tweenTarget(t)

	g := TweenScale(obj, 2.0, 3.0, 0.5, ease.Linear)
	g.Update(0.25)
	g.Update(0.25)
	h.Update()

	if !g.Done {
		t.Fatal("expected Done after full duration")
	}
	if s := nodeOf(t, h, obj).transform.Scale; math.Abs(float64(s)-3) > 0.01 {
		t.Errorf("Scale = %f, want ~3", s)
	}
}

func TestTweenOrientationShortestArc(t *testing.T) {
	h, _, obj := tweenTarget(t)

	from := mgl32.QuatIdent()
	to := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	// The negated quaternion is the same rotation; the tween must not take
	// the long way round.
	g := TweenOrientation(obj, from, to.Scale(-1), 1.0, ease.Linear)

	g.Update(0.5)
	h.Update()
	half := mgl32.QuatRotate(mgl32.DegToRad(45), mgl32.Vec3{0, 1, 0})
	if got := nodeOf(t, h, obj).transform.Orientation; !quatSameRotation(got, half, 1e-4) {
		t.Errorf("midway orientation = %v, want %v", got, half)
	}

	g.Update(0.5)
	h.Update()
	if got := nodeOf(t, h, obj).transform.Orientation; !quatSameRotation(got, to, 1e-4) {
		t.Errorf("final orientation = %v, want %v", got, to)
	}
}

func TestTweenDoneStopsSending(t *testing.T) {
	h, _, obj := tweenTarget(t)

	g := TweenScale(obj, 1, 2, 0.1, ease.Linear)
	g.Update(0.2)
	h.Update()
	applied := h.Stats().Applied

	g.Update(0.1)
	h.Update()
	if got := h.Stats().Applied; got != applied {
		t.Errorf("Applied = %d after Done, want %d", got, applied)
	}
}

func TestTweenReset(t *testing.T) {
	h, _, obj := tweenTarget(t)

	g := TweenScale(obj, 1, 2, 0.1, ease.Linear)
	g.Update(0.2)
	g.Reset()
	if g.Done {
		t.Fatal("Reset should clear Done")
	}
	g.Update(0)
	h.Update()
	if s := nodeOf(t, h, obj).transform.Scale; math.Abs(float64(s)-1) > 0.01 {
		t.Errorf("Scale = %f after Reset, want ~1", s)
	}
}

func TestTweenOnDestroyedObject(t *testing.T) {
	h, _, obj := tweenTarget(t)
	h.Update()
	h.Destroy(obj)

	g := TweenPosition(obj, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, 1, ease.Linear)
	g.Update(1)
	h.Update()

	if got := h.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}
