package trellis

import "github.com/hajimehoshi/ebiten/v2"

// LightKind selects how a light contributes to shading.
type LightKind uint8

const (
	LightAmbient     LightKind = iota // uniform, no direction
	LightDirectional                  // parallel rays along the node's -Z axis
	LightHemisphere                   // sky color from above, ground color from below
	LightPoint                        // radiates from the node's world position
)

func (k LightKind) String() string {
	switch k {
	case LightAmbient:
		return "ambient"
	case LightDirectional:
		return "directional"
	case LightHemisphere:
		return "hemisphere"
	case LightPoint:
		return "point"
	}
	return "unknown"
}

// ShadowMap is a depth target a directional light renders into.
type ShadowMap struct {
	Width, Height int
	image         *ebiten.Image
}

// NewShadowMap allocates a shadow map of the given resolution.
func NewShadowMap(width, height int) *ShadowMap {
	return &ShadowMap{Width: width, Height: height, image: ebiten.NewImage(width, height)}
}

// Image returns the backing target.
func (m *ShadowMap) Image() *ebiten.Image { return m.image }

// ShadowBinding attaches a shadow map and the projection used to fill it.
type ShadowBinding struct {
	Map        *ShadowMap
	Projection Orthographic
}

// LightData is the payload of a light node.
type LightData struct {
	Kind      LightKind
	Color     Color
	Intensity float32
	// GroundColor is only used by hemisphere lights.
	GroundColor Color
	Shadow      ShadowBinding
}

// Light is a light source object.
type Light struct {
	Base
}

// SetColor changes the light color and intensity.
func (l Light) SetColor(c Color, intensity float32) {
	l.send(opSetLightColor{color: c, intensity: intensity})
}

// SetShadow makes the light cast shadows into m using proj. Only directional
// lights use it.
func (l Light) SetShadow(m *ShadowMap, proj Orthographic) {
	l.send(opSetShadow{shadow: ShadowBinding{Map: m, Projection: proj}})
}
