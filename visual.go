package trellis

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MaxTargets is the number of morph targets a visual can blend.
const MaxTargets = 8

// Geometry is an indexed triangle list in local space. A Geometry may be
// shared by many visuals and must not be modified once spawned.
type Geometry struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	// Indices holds three entries per triangle, counter-clockwise when front
	// facing.
	Indices []uint16
	// Targets holds per-vertex displacements, one slice per morph target.
	Targets [][]mgl32.Vec3
	// Joints and JointWeights skin each vertex to up to four skeleton joints.
	Joints       [][4]uint16
	JointWeights [][4]float32
}

// TriangleCount returns the number of complete triangles.
func (g *Geometry) TriangleCount() int {
	if g == nil {
		return 0
	}
	return len(g.Indices) / 3
}

// morphed returns the positions displaced by weights, written into *scratch.
// With all weights zero it returns Positions itself.
func (g *Geometry) morphed(weights [MaxTargets]float32, scratch *[]mgl32.Vec3) []mgl32.Vec3 {
	active := false
	for i := range weights {
		if weights[i] != 0 && i < len(g.Targets) {
			active = true
			break
		}
	}
	if !active {
		return g.Positions
	}
	buf := *scratch
	if cap(buf) < len(g.Positions) {
		buf = make([]mgl32.Vec3, len(g.Positions))
	}
	buf = buf[:len(g.Positions)]
	*scratch = buf
	copy(buf, g.Positions)
	for t, target := range g.Targets {
		if t >= MaxTargets || weights[t] == 0 {
			continue
		}
		w := weights[t]
		for i := range buf {
			if i < len(target) {
				buf[i] = buf[i].Add(target[i].Mul(w))
			}
		}
	}
	return buf
}

// NewPlane returns a width x height quad in the XY plane facing +Z, centered on
// the origin, with UVs spanning the full texture.
func NewPlane(width, height float32) *Geometry {
	hw, hh := width/2, height/2
	n := mgl32.Vec3{0, 0, 1}
	return &Geometry{
		Positions: []mgl32.Vec3{{-hw, -hh, 0}, {hw, -hh, 0}, {hw, hh, 0}, {-hw, hh, 0}},
		Normals:   []mgl32.Vec3{n, n, n, n},
		UVs:       []mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}},
		Indices:   []uint16{0, 1, 2, 0, 2, 3},
	}
}

// NewGrid returns a width x height plane facing +Z split into cols x rows
// cells, for geometry deformed per vertex by morph targets or skinning. Vertex
// (c, r) is at index r*(cols+1)+c, with row 0 at the top.
func NewGrid(width, height float32, cols, rows int) *Geometry {
	cols, rows = max(cols, 1), max(rows, 1)
	vcols := cols + 1
	hw, hh := width/2, height/2
	n := mgl32.Vec3{0, 0, 1}
	g := &Geometry{}
	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			u, v := float32(c)/float32(cols), float32(r)/float32(rows)
			g.Positions = append(g.Positions, mgl32.Vec3{-hw + u*width, hh - v*height, 0})
			g.Normals = append(g.Normals, n)
			g.UVs = append(g.UVs, mgl32.Vec2{u, v})
		}
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			tl := uint16(r*vcols + c)
			tr := tl + 1
			bl := uint16((r+1)*vcols + c)
			br := bl + 1
			g.Indices = append(g.Indices, tl, bl, br, tl, br, tr)
		}
	}
	return g
}

// NewCuboid returns an axis-aligned box centered on the origin. Each face has
// its own four vertices so normals stay flat.
func NewCuboid(width, height, depth float32) *Geometry {
	hx, hy, hz := width/2, height/2, depth/2
	faces := []struct {
		n       mgl32.Vec3
		corners [4]mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{hx, -hy, hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}, {-hx, -hy, hz}}},
	}
	g := &Geometry{}
	for _, f := range faces {
		base := uint16(len(g.Positions))
		g.Positions = append(g.Positions, f.corners[:]...)
		g.Normals = append(g.Normals, f.n, f.n, f.n, f.n)
		g.UVs = append(g.UVs, mgl32.Vec2{0, 1}, mgl32.Vec2{1, 1}, mgl32.Vec2{1, 0}, mgl32.Vec2{0, 0})
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}

// NewPolygon returns a triangle fan over points, which must describe a convex
// polygon in the XY plane. Fewer than three points yield an empty geometry.
func NewPolygon(points []mgl32.Vec2) *Geometry {
	g := &Geometry{}
	if len(points) < 3 {
		return g
	}
	n := mgl32.Vec3{0, 0, 1}
	for _, p := range points {
		g.Positions = append(g.Positions, mgl32.Vec3{p.X(), p.Y(), 0})
		g.Normals = append(g.Normals, n)
	}
	for i := 1; i+1 < len(points); i++ {
		g.Indices = append(g.Indices, 0, uint16(i), uint16(i+1))
	}
	return g
}

// VisualData is the payload of a visual node.
type VisualData struct {
	Geometry *Geometry
	Material Material
	Blend    BlendMode
	// Skeleton deforms the geometry when set.
	Skeleton NodePointer
	Weights  [MaxTargets]float32
}

// Mesh is a visual object built from a Geometry and a Material.
type Mesh struct {
	Base
}

// SetMaterial replaces the mesh material.
func (m Mesh) SetMaterial(mat Material) {
	m.send(opSetMaterial{material: mat})
}

// SetSkeleton binds the mesh to a skeleton.
func (m Mesh) SetSkeleton(s Skeleton) {
	m.send(opSetSkeleton{skeleton: s.node})
}

// SetWeights sets morph target weights. Weights past MaxTargets are ignored;
// missing ones become zero.
func (m Mesh) SetWeights(weights []float32) {
	var w [MaxTargets]float32
	copy(w[:], weights)
	m.send(opSetWeights{weights: w})
}

// Sprite is a textured quad facing +Z.
type Sprite struct {
	Base
}

// SetTexelRange selects the part of the sprite texture to draw, in texels
// from the top-left corner of the image.
func (s Sprite) SetTexelRange(base, size [2]int) {
	s.send(opSetTexelRange{base: base, size: size})
}
