package trellis

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Texture is an image plus the texel range sampled from it. Textures are
// values; changing the range of one copy does not affect others.
type Texture struct {
	image  *ebiten.Image
	region image.Rectangle
}

// NewTexture wraps img, sampling the whole image.
func NewTexture(img *ebiten.Image) Texture {
	return Texture{image: img, region: img.Bounds()}
}

// Image returns the backing image.
func (t Texture) Image() *ebiten.Image { return t.image }

// Region returns the sampled texel rectangle in image coordinates.
func (t Texture) Region() image.Rectangle { return t.region }

// SetTexelRange restricts sampling to the size-wide rectangle starting at
// base. Coordinates are in texels with the origin at the top-left, and the
// range is clipped to the image.
func (t *Texture) SetTexelRange(base, size [2]int) {
	r := image.Rect(base[0], base[1], base[0]+size[0], base[1]+size[1])
	if t.image != nil {
		r = r.Intersect(t.image.Bounds())
	}
	t.region = r
}

// UVRange returns the normalized (u0, v0, u1, v1) of the texel range.
func (t Texture) UVRange() [4]float32 {
	if t.image == nil {
		return [4]float32{0, 0, 1, 1}
	}
	b := t.image.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())
	return [4]float32{
		float32(t.region.Min.X-b.Min.X) / w,
		float32(t.region.Min.Y-b.Min.Y) / h,
		float32(t.region.Max.X-b.Min.X) / w,
		float32(t.region.Max.Y-b.Min.Y) / h,
	}
}

// Material describes how a visual is shaded. The set of materials is closed.
type Material interface {
	isMaterial()
}

// BasicMaterial is unlit: every triangle uses Color, optionally textured.
type BasicMaterial struct {
	Color Color
	Map   *Texture
}

// LambertMaterial is diffuse-lit. Flat shading uses face normals.
type LambertMaterial struct {
	Color Color
	Flat  bool
}

// PhongMaterial adds a specular highlight controlled by Glossiness.
type PhongMaterial struct {
	Color      Color
	Glossiness float32
}

// PbrMaterial is the metallic-roughness model. The renderer approximates it
// with diffuse lighting tinted by BaseColor and Emissive.
type PbrMaterial struct {
	BaseColor    Color
	Metallic     float32
	Roughness    float32
	Emissive     Color
	BaseColorMap *Texture
}

// SpriteMaterial renders the texel range of Map unlit.
type SpriteMaterial struct {
	Map Texture
}

// LineMaterial draws triangle edges as lines of Color.
type LineMaterial struct {
	Color Color
}

// WireframeMaterial draws triangle outlines of Color.
type WireframeMaterial struct {
	Color Color
}

func (BasicMaterial) isMaterial()     {}
func (LambertMaterial) isMaterial()   {}
func (PhongMaterial) isMaterial()     {}
func (PbrMaterial) isMaterial()       {}
func (SpriteMaterial) isMaterial()    {}
func (LineMaterial) isMaterial()      {}
func (WireframeMaterial) isMaterial() {}

// shading is what the renderer needs from a material.
type shading struct {
	color   Color
	texture *Texture
	lit     bool
	flat    bool
	gloss   float32
	emit    Color
	edges   bool
}

func shadingOf(m Material) shading {
	switch m := m.(type) {
	case BasicMaterial:
		return shading{color: m.Color, texture: m.Map}
	case LambertMaterial:
		return shading{color: m.Color, lit: true, flat: m.Flat}
	case PhongMaterial:
		return shading{color: m.Color, lit: true, gloss: m.Glossiness}
	case PbrMaterial:
		return shading{color: m.BaseColor, texture: m.BaseColorMap, lit: true, emit: m.Emissive}
	case SpriteMaterial:
		tex := m.Map
		return shading{color: ColorWhite, texture: &tex}
	case LineMaterial:
		return shading{color: m.Color, edges: true}
	case WireframeMaterial:
		return shading{color: m.Color, edges: true}
	}
	return shading{color: ColorWhite}
}
