package trellis

import (
	"math"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
)

// RenderStats describes the last frame drawn by a Renderer.
type RenderStats struct {
	Visuals   int
	Lights    int
	Skeletons int
	Shadows   int
	Triangles int
	Culled    int
	DrawCalls int

	WalkTime   time.Duration
	SortTime   time.Duration
	SubmitTime time.Duration
}

// triangleCommand is a single projected triangle, ready for submission.
type triangleCommand struct {
	verts [3]ebiten.Vertex
	depth float32
	image *ebiten.Image
	blend BlendMode
	order int
}

// lightInfo is a light resolved to world space for one frame.
type lightInfo struct {
	kind      LightKind
	color     Color
	ground    Color
	intensity float64
	position  mgl32.Vec3
	// direction is the way the light travels, the node's -Z axis.
	direction mgl32.Vec3
	distance  float32
	shadow    *ShadowBinding
	// shadowMatrix maps world space into the light's clip space.
	shadowMatrix mgl32.Mat4
}

type visualItem struct {
	world  Transform
	visual *VisualData
}

// Renderer draws scenes onto ebiten images. It keeps its scratch buffers
// between frames. A Renderer is not safe for concurrent use.
type Renderer struct {
	// ScreenshotDir is where queued screenshots are written.
	ScreenshotDir string

	visuals  []visualItem
	lights   []lightInfo
	commands []triangleCommand
	morphBuf []mgl32.Vec3
	verts    []ebiten.Vertex
	inds     []uint32

	screenshots []string
	last        RenderStats
}

// NewRenderer returns a Renderer with empty buffers.
func NewRenderer() *Renderer {
	return &Renderer{ScreenshotDir: "screenshots"}
}

// Stats returns the statistics of the last Render call.
func (r *Renderer) Stats() RenderStats { return r.last }

// Render synchronizes scene and draws it onto screen as seen from camera. It
// fails with ErrNoCamera if the camera has been destroyed or has no
// projection; nothing is drawn in that case.
func (r *Renderer) Render(screen *ebiten.Image, scene *Scene, camera Camera) error {
	guard := scene.SyncGuard()
	defer guard.Release()

	hub := scene.hub
	camNode, ok := hub.nodes.get(camera.node)
	if !ok {
		return errors.Wrapf(ErrNoCamera, "render %v", camera.node)
	}
	if camera.Projection == nil {
		return errors.Wrapf(ErrNoCamera, "render %v: no projection", camera.node)
	}

	var stats RenderStats
	t0 := time.Now()

	b := screen.Bounds()
	width, height := float32(b.Dx()), float32(b.Dy())
	if width == 0 || height == 0 {
		return nil
	}
	camWorld := camNode.worldTransform
	viewProj := camera.Projection.Matrix(width / height).Mul4(viewMatrix(camWorld))
	eye := camWorld.Position

	r.visuals = r.visuals[:0]
	r.lights = r.lights[:0]
	r.commands = r.commands[:0]

	walker := guard.WalkVisible()
	for {
		wn, ok := walker.Next()
		if !ok {
			break
		}
		switch wn.Kind {
		case KindVisual:
			r.visuals = append(r.visuals, visualItem{world: wn.WorldTransform, visual: wn.Visual})
		case KindLight:
			li := resolveLight(wn.WorldTransform, wn.Light, eye)
			if li.shadow != nil {
				stats.Shadows++
			}
			r.lights = append(r.lights, li)
		case KindSkeleton:
			stats.Skeletons++
		}
	}
	sort.SliceStable(r.lights, func(i, j int) bool {
		return r.lights[i].distance < r.lights[j].distance
	})
	stats.Visuals = len(r.visuals)
	stats.Lights = len(r.lights)
	stats.WalkTime = time.Since(t0)

	t0 = time.Now()
	for i := range r.visuals {
		r.emitVisual(hub, &r.visuals[i], viewProj, eye, width, height, &stats)
	}
	sort.SliceStable(r.commands, func(i, j int) bool {
		a, b := &r.commands[i], &r.commands[j]
		if a.depth != b.depth {
			return a.depth > b.depth
		}
		return a.order < b.order
	})
	stats.Triangles = len(r.commands)
	stats.SortTime = time.Since(t0)

	t0 = time.Now()
	drawBackground(screen, scene.Background)
	stats.DrawCalls = r.submit(screen)
	stats.SubmitTime = time.Since(t0)
	r.flushScreenshots(screen, hub.log)

	r.last = stats
	if hub.debug {
		hub.log.Debug("render",
			"visuals", stats.Visuals, "lights", stats.Lights,
			"triangles", stats.Triangles, "culled", stats.Culled, "draw_calls", stats.DrawCalls,
			"walk", stats.WalkTime, "sort", stats.SortTime, "submit", stats.SubmitTime)
	}
	return nil
}

func drawBackground(screen *ebiten.Image, bg Background) {
	if bg.Texture == nil || bg.Texture.Image() == nil {
		screen.Fill(bg.Color.toRGBA())
		return
	}
	src := bg.Texture.Image().SubImage(bg.Texture.Region()).(*ebiten.Image)
	sb, db := src.Bounds(), screen.Bounds()
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
	screen.DrawImage(src, &op)
}

func resolveLight(world Transform, l *LightData, eye mgl32.Vec3) lightInfo {
	li := lightInfo{
		kind:      l.Kind,
		color:     l.Color,
		ground:    l.GroundColor,
		intensity: float64(l.Intensity),
		position:  world.Position,
		direction: world.Orientation.Rotate(mgl32.Vec3{0, 0, -1}).Normalize(),
		distance:  world.Position.Sub(eye).Len(),
	}
	if l.Kind == LightDirectional && l.Shadow.Map != nil {
		li.shadow = &l.Shadow
		li.shadowMatrix = l.Shadow.Projection.Matrix(1).Mul4(viewMatrix(world))
	}
	return li
}

// emitVisual projects one visual's triangles into render commands.
func (r *Renderer) emitVisual(hub *Hub, item *visualItem, viewProj mgl32.Mat4, eye mgl32.Vec3, width, height float32, stats *RenderStats) {
	v := item.visual
	g := v.Geometry
	if g == nil || len(g.Indices) < 3 {
		return
	}
	sh := shadingOf(v.Material)

	positions := g.morphed(v.Weights, &r.morphBuf)
	var joints []mgl32.Mat4
	if !v.Skeleton.IsNil() {
		if skel, ok := hub.nodes.get(v.Skeleton); ok && skel.skeleton != nil {
			joints = skel.skeleton.Joints
		}
	}

	model := item.world.Matrix()
	img := WhitePixel
	var u0, v0, du, dv float32 = 0.5, 0.5, 0, 0
	if sh.texture != nil && sh.texture.Image() != nil {
		img = sh.texture.Image()
		reg := sh.texture.Region()
		u0, v0 = float32(reg.Min.X), float32(reg.Min.Y)
		du, dv = float32(reg.Dx()), float32(reg.Dy())
	}

	for t := 0; t+2 < len(g.Indices); t += 3 {
		var (
			world  [3]mgl32.Vec3
			screen [3]mgl32.Vec3
			culled bool
		)
		for k := 0; k < 3; k++ {
			idx := int(g.Indices[t+k])
			if idx >= len(positions) {
				culled = true
				break
			}
			p := skin(positions[idx], g, idx, joints)
			wp := model.Mul4x1(p.Vec4(1))
			clip := viewProj.Mul4x1(wp)
			if clip.W() <= 1e-5 {
				culled = true
				break
			}
			ndc := clip.Vec3().Mul(1 / clip.W())
			world[k] = wp.Vec3()
			screen[k] = mgl32.Vec3{(ndc.X() + 1) / 2 * width, (1 - ndc.Y()) / 2 * height, ndc.Z()}
		}
		if culled || offscreen(screen, width, height) {
			stats.Culled++
			continue
		}
		_, isSprite := v.Material.(SpriteMaterial)
		if !isSprite && !sh.edges && backFacing(screen) {
			stats.Culled++
			continue
		}

		var colors [3]Color
		if sh.lit {
			faceNormal := world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
			if faceNormal.Len() > 0 {
				faceNormal = faceNormal.Normalize()
			}
			for k := 0; k < 3; k++ {
				n := faceNormal
				idx := int(g.Indices[t+k])
				if !sh.flat && idx < len(g.Normals) {
					n = item.world.Orientation.Rotate(g.Normals[idx]).Normalize()
				}
				colors[k] = shade(sh, r.lights, world[k], n, eye)
			}
		} else {
			colors = [3]Color{sh.color, sh.color, sh.color}
		}

		depth := (screen[0].Z() + screen[1].Z() + screen[2].Z()) / 3
		if sh.edges {
			r.emitEdges(screen, sh.color, depth, v.Blend)
			continue
		}
		cmd := triangleCommand{depth: depth, image: img, blend: v.Blend, order: len(r.commands)}
		for k := 0; k < 3; k++ {
			idx := int(g.Indices[t+k])
			var uv mgl32.Vec2
			if idx < len(g.UVs) {
				uv = g.UVs[idx]
			}
			cmd.verts[k] = vertex(screen[k], u0+uv.X()*du, v0+uv.Y()*dv, colors[k])
		}
		r.commands = append(r.commands, cmd)
	}
}

// skin deforms p by up to four joints. Without joints p is returned as is.
func skin(p mgl32.Vec3, g *Geometry, idx int, joints []mgl32.Mat4) mgl32.Vec3 {
	if len(joints) == 0 || idx >= len(g.Joints) || idx >= len(g.JointWeights) {
		return p
	}
	var out mgl32.Vec4
	var total float32
	for k := 0; k < 4; k++ {
		w := g.JointWeights[idx][k]
		j := int(g.Joints[idx][k])
		if w == 0 || j >= len(joints) {
			continue
		}
		out = out.Add(joints[j].Mul4x1(p.Vec4(1)).Mul(w))
		total += w
	}
	if total == 0 {
		return p
	}
	return out.Vec3().Mul(1 / total)
}

func offscreen(s [3]mgl32.Vec3, width, height float32) bool {
	switch {
	case s[0].X() < 0 && s[1].X() < 0 && s[2].X() < 0:
		return true
	case s[0].Y() < 0 && s[1].Y() < 0 && s[2].Y() < 0:
		return true
	case s[0].X() > width && s[1].X() > width && s[2].X() > width:
		return true
	case s[0].Y() > height && s[1].Y() > height && s[2].Y() > height:
		return true
	}
	return false
}

// backFacing reports clockwise winding on screen. Screen Y points down, so a
// counter-clockwise triangle in view space has a negative signed area here.
func backFacing(s [3]mgl32.Vec3) bool {
	area := (s[1].X()-s[0].X())*(s[2].Y()-s[0].Y()) - (s[2].X()-s[0].X())*(s[1].Y()-s[0].Y())
	return area > 0
}

// shade evaluates the lights at a surface point.
func shade(sh shading, lights []lightInfo, pos, normal, eye mgl32.Vec3) Color {
	var lr, lg, lb float64
	add := func(c Color, f float64) {
		lr += c.R * f
		lg += c.G * f
		lb += c.B * f
	}
	view := eye.Sub(pos)
	if view.Len() > 0 {
		view = view.Normalize()
	}
	for i := range lights {
		l := &lights[i]
		switch l.kind {
		case LightAmbient:
			add(l.color, l.intensity)
		case LightHemisphere:
			t := 0.5 + 0.5*float64(normal.Y())
			mix := Color{
				R: l.ground.R + (l.color.R-l.ground.R)*t,
				G: l.ground.G + (l.color.G-l.ground.G)*t,
				B: l.ground.B + (l.color.B-l.ground.B)*t,
			}
			add(mix, l.intensity)
		case LightDirectional:
			toLight := l.direction.Mul(-1)
			add(l.color, l.intensity*lambert(normal, toLight))
			add(l.color, l.intensity*specular(sh.gloss, normal, toLight, view))
		case LightPoint:
			d := l.position.Sub(pos)
			dist := float64(d.Len())
			if dist == 0 {
				add(l.color, l.intensity)
				continue
			}
			toLight := d.Mul(float32(1 / dist))
			atten := 1 / (1 + 0.1*dist + 0.01*dist*dist)
			add(l.color, l.intensity*atten*lambert(normal, toLight))
			add(l.color, l.intensity*atten*specular(sh.gloss, normal, toLight, view))
		}
	}
	c := sh.color
	return Color{
		R: c.R*lr + sh.emit.R,
		G: c.G*lg + sh.emit.G,
		B: c.B*lb + sh.emit.B,
		A: c.A,
	}
}

func lambert(normal, toLight mgl32.Vec3) float64 {
	return math.Max(0, float64(normal.Dot(toLight)))
}

func specular(gloss float32, normal, toLight, view mgl32.Vec3) float64 {
	if gloss <= 0 {
		return 0
	}
	h := toLight.Add(view)
	if h.Len() == 0 {
		return 0
	}
	return math.Pow(math.Max(0, float64(normal.Dot(h.Normalize()))), float64(gloss))
}

func vertex(p mgl32.Vec3, sx, sy float32, c Color) ebiten.Vertex {
	a := float32(math.Min(math.Max(c.A, 0), 1))
	return ebiten.Vertex{
		DstX:   p.X(),
		DstY:   p.Y(),
		SrcX:   sx,
		SrcY:   sy,
		ColorR: float32(c.R) * a,
		ColorG: float32(c.G) * a,
		ColorB: float32(c.B) * a,
		ColorA: a,
	}
}

// emitEdges draws the triangle outline as three one-pixel quads.
func (r *Renderer) emitEdges(s [3]mgl32.Vec3, c Color, depth float32, blend BlendMode) {
	const halfWidth = 0.5
	for k := 0; k < 3; k++ {
		a, b := s[k], s[(k+1)%3]
		d := mgl32.Vec2{b.X() - a.X(), b.Y() - a.Y()}
		if d.Len() == 0 {
			continue
		}
		n := mgl32.Vec2{-d.Y(), d.X()}.Normalize().Mul(halfWidth)
		p0 := mgl32.Vec3{a.X() + n.X(), a.Y() + n.Y(), a.Z()}
		p1 := mgl32.Vec3{a.X() - n.X(), a.Y() - n.Y(), a.Z()}
		p2 := mgl32.Vec3{b.X() - n.X(), b.Y() - n.Y(), b.Z()}
		p3 := mgl32.Vec3{b.X() + n.X(), b.Y() + n.Y(), b.Z()}
		for _, tri := range [2][3]mgl32.Vec3{{p0, p1, p2}, {p0, p2, p3}} {
			cmd := triangleCommand{depth: depth, image: WhitePixel, blend: blend, order: len(r.commands)}
			for i := range tri {
				cmd.verts[i] = vertex(tri[i], 0.5, 0.5, c)
			}
			r.commands = append(r.commands, cmd)
		}
	}
}

// submit draws the sorted commands, merging runs that share an image and
// blend mode into one DrawTriangles32 call. It returns the draw call count.
func (r *Renderer) submit(target *ebiten.Image) int {
	calls := 0
	flush := func(img *ebiten.Image, blend BlendMode) {
		if len(r.inds) == 0 {
			return
		}
		var triOp ebiten.DrawTrianglesOptions
		triOp.Blend = blend.EbitenBlend()
		triOp.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
		target.DrawTriangles32(r.verts, r.inds, img, &triOp)
		r.verts = r.verts[:0]
		r.inds = r.inds[:0]
		calls++
	}

	r.verts = r.verts[:0]
	r.inds = r.inds[:0]
	var (
		curImg   *ebiten.Image
		curBlend BlendMode
	)
	for i := range r.commands {
		cmd := &r.commands[i]
		if cmd.image != curImg || cmd.blend != curBlend {
			flush(curImg, curBlend)
			curImg, curBlend = cmd.image, cmd.blend
		}
		base := uint32(len(r.verts))
		r.verts = append(r.verts, cmd.verts[:]...)
		r.inds = append(r.inds, base, base+1, base+2)
	}
	flush(curImg, curBlend)
	return calls
}
