// Package contact holds the raw point contacts reported for a grasp trial and the
// reduction of near-duplicate contacts before wrench space construction.
package contact

import "github.com/go-gl/mathgl/mgl64"

// Contact is a point contact in the object frame. Normal is the unit outward surface
// normal at Position.
type Contact struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
}

// Transform represents a rigid pose in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// NewPose creates a transform from a position and a rotation.
func NewPose(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	rotation = rotation.Normalize()
	return Transform{
		Position:        position,
		Rotation:        rotation,
		InverseRotation: rotation.Inverse(),
	}
}

// Inverse returns the transform mapping this transform's target frame back to its source.
func (t Transform) Inverse() Transform {
	return Transform{
		Position:        t.InverseRotation.Rotate(t.Position.Mul(-1)),
		Rotation:        t.InverseRotation,
		InverseRotation: t.Rotation,
	}
}

// Apply maps a contact through the transform: positions are rotated and translated,
// normals only rotated.
func (t Transform) Apply(c Contact) Contact {
	return Contact{
		Position: t.Rotation.Rotate(c.Position).Add(t.Position),
		Normal:   t.Rotation.Rotate(c.Normal),
	}
}

// ToObjectFrame expresses world-frame contacts in the frame of an object whose pose in
// the world is objectPose.
func ToObjectFrame(contacts []Contact, objectPose Transform) []Contact {
	worldToObject := objectPose.Inverse()
	out := make([]Contact, len(contacts))
	for i, c := range contacts {
		out[i] = worldToObject.Apply(c)
	}
	return out
}
