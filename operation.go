package trellis

import "github.com/go-gl/mathgl/mgl32"

// operation is a mutation request queued against a node. Each concrete type
// only carries the fields it changes; the Hub dispatches on the type.
type operation interface {
	opName() string
}

// opAddChild head-inserts child into the target's child chain.
type opAddChild struct{ child NodePointer }

// opRemoveChild splices child out of the target's child chain.
type opRemoveChild struct{ child NodePointer }

type opSetVisible struct{ visible bool }

// opSetTransform replaces only the non-nil components. All-nil is a no-op.
type opSetTransform struct {
	position    *mgl32.Vec3
	orientation *mgl32.Quat
	scale       *float32
}

type opSetMaterial struct{ material Material }

type opSetSkeleton struct{ skeleton NodePointer }

type opSetTexelRange struct{ base, size [2]int }

type opSetWeights struct{ weights [MaxTargets]float32 }

type opSetShadow struct{ shadow ShadowBinding }

type opSetLightColor struct {
	color     Color
	intensity float32
}

type audioCommand uint8

const (
	audioAppend audioCommand = iota
	audioPause
	audioResume
	audioStop
	audioVolume
)

type opAudio struct {
	cmd    audioCommand
	clip   Clip
	volume float64
}

func (opAddChild) opName() string      { return "AddChild" }
func (opRemoveChild) opName() string   { return "RemoveChild" }
func (opSetVisible) opName() string    { return "SetVisible" }
func (opSetTransform) opName() string  { return "SetTransform" }
func (opSetMaterial) opName() string   { return "SetMaterial" }
func (opSetSkeleton) opName() string   { return "SetSkeleton" }
func (opSetTexelRange) opName() string { return "SetTexelRange" }
func (opSetWeights) opName() string    { return "SetWeights" }
func (opSetShadow) opName() string     { return "SetShadow" }
func (opSetLightColor) opName() string { return "SetLightColor" }
func (opAudio) opName() string         { return "Audio" }
