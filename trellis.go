package trellis

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at render submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default material color.
var ColorWhite = Color{1, 1, 1, 1}

// ColorBlack is the default background.
var ColorBlack = Color{0, 0, 0, 1}

// ColorFrom converts any color.Color (for example a colornames entry).
func ColorFrom(c color.Color) Color {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return Color{}
	}
	// RGBA returns premultiplied 16-bit channels.
	return Color{
		R: float64(r) / float64(a),
		G: float64(g) / float64(a),
		B: float64(b) / float64(a),
		A: float64(a) / 0xffff,
	}
}

// Mul returns the component-wise product, used for lighting.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B, c.A * o.A}
}

// Scale multiplies the RGB channels by f and leaves alpha alone.
func (c Color) Scale(f float64) Color {
	return Color{c.R * f, c.G * f, c.B * f, c.A}
}

// toRGBA returns the premultiplied 8-bit color.
func (c Color) toRGBA() color.RGBA {
	cl := func(v float64) uint8 {
		switch {
		case v <= 0:
			return 0
		case v >= 1:
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	a := c.A
	if a > 1 {
		a = 1
	}
	return color.RGBA{R: cl(c.R * a), G: cl(c.G * a), B: cl(c.B * a), A: cl(a)}
}

// WhitePixel is a 1x1 white image used for untextured triangles.
var WhitePixel *ebiten.Image

func init() {
	WhitePixel = ebiten.NewImage(1, 1)
	WhitePixel.Fill(ColorWhite.toRGBA())
}

// BlendMode selects a compositing operation. Each maps to a specific ebiten.Blend value.
type BlendMode uint8

const (
	BlendNormal   BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                       // additive / lighter
	BlendMultiply                  // multiply (source * destination; only darkens)
	BlendNone                      // opaque copy (skip blending)
)

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendAdd:
		return ebiten.BlendLighter
	case BlendMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case BlendNone:
		return ebiten.BlendCopy
	default:
		return ebiten.BlendSourceOver
	}
}

// GraphEventType identifies a structural change reported to an EventSink.
type GraphEventType uint8

const (
	EventSpawned      GraphEventType = iota // a node was created
	EventChildAdded                         // a node was linked under a group
	EventChildRemoved                       // a node was unlinked from a group
	EventReclaimed                          // a destroyed node's slot was freed
)

func (t GraphEventType) String() string {
	switch t {
	case EventSpawned:
		return "spawned"
	case EventChildAdded:
		return "child-added"
	case EventChildRemoved:
		return "child-removed"
	case EventReclaimed:
		return "reclaimed"
	}
	return "unknown"
}

// GraphEvent describes one structural change. Parent is nil for spawn and
// reclaim events.
type GraphEvent struct {
	Type   GraphEventType
	Node   NodePointer
	Kind   Kind
	Parent NodePointer
	Frame  uint64
}

// EventSink receives graph events as the Hub applies them. Emit is called
// with the Hub locked and must not call back into the Hub.
type EventSink interface {
	Emit(event GraphEvent)
}
