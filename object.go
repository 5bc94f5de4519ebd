package trellis

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Object is implemented by every scene participant. Anything that can hand
// out its Base can be added to groups, resolved through a SyncGuard and
// mutated with the Base methods.
type Object interface {
	Upcast() Base
}

// Base is the handle shared by all wrapper types. It holds a pointer to the
// node and the sending side of the Hub's mailbox; it never touches the graph
// directly. Base values are cheap to copy and safe to use from any goroutine.
//
// All mutation methods are fire-and-forget: they queue a message and return.
// The change becomes visible after the next Hub.ProcessMessages.
type Base struct {
	node NodePointer
	tx   *mailbox
}

// Upcast returns b itself, so Base satisfies Object.
func (b Base) Upcast() Base { return b }

// Pointer returns the node pointer the handle refers to.
func (b Base) Pointer() NodePointer { return b.node }

// Equal reports whether two handles refer to the same node.
func (b Base) Equal(other Object) bool {
	return b.node == other.Upcast().node
}

func (b Base) String() string {
	return fmt.Sprintf("Object(%v)", b.node)
}

// send queues op for this node. A closed Hub drops the message; the handle
// stays usable.
func (b Base) send(op operation) {
	if b.tx == nil {
		return
	}
	_ = b.tx.send(message{target: b.node.Downgrade(), op: op})
}

// SetVisible sets the node's own visibility flag. World visibility also
// depends on every ancestor.
func (b Base) SetVisible(visible bool) {
	b.send(opSetVisible{visible: visible})
}

// SetPosition sets the position relative to the parent.
func (b Base) SetPosition(pos mgl32.Vec3) {
	b.send(opSetTransform{position: &pos})
}

// SetOrientation sets the orientation relative to the parent.
func (b Base) SetOrientation(rot mgl32.Quat) {
	b.send(opSetTransform{orientation: &rot})
}

// SetScale sets the uniform scale relative to the parent.
func (b Base) SetScale(scale float32) {
	b.send(opSetTransform{scale: &scale})
}

// SetTransform sets position, orientation and scale in one message.
func (b Base) SetTransform(pos mgl32.Vec3, rot mgl32.Quat, scale float32) {
	b.send(opSetTransform{position: &pos, orientation: &rot, scale: &scale})
}

// LookAt moves the object to eye and rotates it so that it faces target. The
// up direction is world +Y, or +Z when the gaze is nearly vertical.
func (b Base) LookAt(eye, target mgl32.Vec3) {
	q := lookAtOrientation(eye, target, nil)
	b.send(opSetTransform{position: &eye, orientation: &q})
}

// LookAtUp is LookAt with an explicit up direction.
func (b Base) LookAtUp(eye, target, up mgl32.Vec3) {
	q := lookAtOrientation(eye, target, &up)
	b.send(opSetTransform{position: &eye, orientation: &q})
}
