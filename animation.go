package trellis

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 values on an object simultaneously. Create one
// via the convenience constructors (TweenPosition, TweenScale,
// TweenOrientation) and call Update(dt) each frame. Each update sends the
// interpolated values through the object's handle, so they land at the next
// frame update like any other mutation. Updates for a destroyed object are
// dropped by the Hub.
//
// There is no global animation manager; users call Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	apply  func(vals [4]float32)
	Done   bool
}

// Update advances all tweens by dt seconds and sends the current values.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	var vals [4]float32
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		vals[i] = val
		if !finished {
			allDone = false
		}
	}
	g.apply(vals)
	g.Done = allDone
}

// Reset rewinds the group to its start.
func (g *TweenGroup) Reset() {
	for i := 0; i < g.count; i++ {
		g.tweens[i].Reset()
	}
	g.Done = false
}

// TweenPosition creates a TweenGroup that moves obj from one position to
// another over duration seconds using the easing function.
func TweenPosition(obj Object, from, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	b := obj.Upcast()
	g := &TweenGroup{count: 3}
	for i := 0; i < 3; i++ {
		g.tweens[i] = gween.New(from[i], to[i], duration, fn)
	}
	g.apply = func(v [4]float32) {
		b.SetPosition(mgl32.Vec3{v[0], v[1], v[2]})
	}
	return g
}

// TweenScale creates a TweenGroup that animates obj's uniform scale.
func TweenScale(obj Object, from, to float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	b := obj.Upcast()
	g := &TweenGroup{count: 1}
	g.tweens[0] = gween.New(from, to, duration, fn)
	g.apply = func(v [4]float32) {
		b.SetScale(v[0])
	}
	return g
}

// TweenOrientation creates a TweenGroup that rotates obj from one orientation
// to another along the shortest arc. The easing function shapes the
// interpolation parameter.
func TweenOrientation(obj Object, from, to mgl32.Quat, duration float32, fn ease.TweenFunc) *TweenGroup {
	b := obj.Upcast()
	from, to = from.Normalize(), to.Normalize()
	if from.Dot(to) < 0 {
		to = to.Scale(-1)
	}
	g := &TweenGroup{count: 1}
	g.tweens[0] = gween.New(0, 1, duration, fn)
	g.apply = func(v [4]float32) {
		b.SetOrientation(mgl32.QuatSlerp(from, to, v[0]).Normalize())
	}
	return g
}
