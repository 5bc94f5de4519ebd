package trellis

import "github.com/go-gl/mathgl/mgl32"

// Bone is a joint of a skeleton. Bones are empty nodes placed in the graph
// like any other object; their world transforms drive the joint matrices.
type Bone struct {
	Base
	Index int
}

// SkeletonData is the payload of a skeleton node.
type SkeletonData struct {
	Bones        []NodePointer
	InverseBinds []mgl32.Mat4
	// Joints is recomputed after every graph update: the skeleton's inverse
	// world matrix times each bone's world matrix times its inverse bind.
	Joints []mgl32.Mat4
}

// Skeleton groups bones for skinned meshes.
type Skeleton struct {
	Base
}

// updateJoints recomputes the joint matrices. Bones that no longer resolve
// contribute the identity.
func (h *Hub) updateJoints(skel *node) {
	sd := skel.skeleton
	if cap(sd.Joints) < len(sd.Bones) {
		sd.Joints = make([]mgl32.Mat4, len(sd.Bones))
	}
	sd.Joints = sd.Joints[:len(sd.Bones)]
	base := skel.worldTransform.Inverse().Matrix()
	for i, bp := range sd.Bones {
		bone, ok := h.nodes.get(bp)
		if !ok {
			sd.Joints[i] = mgl32.Ident4()
			continue
		}
		m := base.Mul4(bone.worldTransform.Matrix())
		if i < len(sd.InverseBinds) {
			m = m.Mul4(sd.InverseBinds[i])
		}
		sd.Joints[i] = m
	}
}
