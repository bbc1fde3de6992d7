package wrench

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultConeRays is the number of generators used to approximate a friction cone.
	DefaultConeRays = 6

	// frameSeedThreshold selects the world axis used to seed the tangent frame.
	// A normal component below it keeps the cross product with that axis well conditioned.
	frameSeedThreshold = 0.7
)

// Frame returns the rotation whose columns are the tangent x, tangent y and normal
// axes of a contact. The normal must be nonzero.
func Frame(normal mgl64.Vec3) mgl64.Mat3 {
	z := normal.Normalize()

	var seed mgl64.Vec3
	switch {
	case math.Abs(z.Z()) < frameSeedThreshold:
		seed = mgl64.Vec3{0, 0, 1}
	case math.Abs(z.Y()) < frameSeedThreshold:
		seed = mgl64.Vec3{0, 1, 0}
	default:
		seed = mgl64.Vec3{1, 0, 0}
	}

	y := z.Cross(seed).Normalize()
	x := y.Cross(z).Normalize()

	return mgl64.Mat3FromCols(x, y, z)
}

// ConeForces returns the k generators of the friction cone with coefficient mu around
// normal. Each generator is R·Rz(2πi/k)·(mu, 0, 1) and is not normalized: its
// magnitude is sqrt(mu²+1) and its half-angle to the normal is atan(mu).
func ConeForces(normal mgl64.Vec3, mu float64, k int) []mgl64.Vec3 {
	if k <= 0 {
		return nil
	}

	frame := Frame(normal)
	local := mgl64.Vec3{mu, 0, 1}

	forces := make([]mgl64.Vec3, k)
	for i := 0; i < k; i++ {
		theta := 2 * math.Pi * float64(i) / float64(k)
		forces[i] = frame.Mul3x1(mgl64.Rotate3DZ(theta).Mul3x1(local))
	}

	return forces
}

// Cone returns the wrenches of the friction cone generators at position.
func Cone(position, normal mgl64.Vec3, mu float64, k int) []Wrench {
	forces := ConeForces(normal, mu, k)
	wrenches := make([]Wrench, len(forces))
	for i, f := range forces {
		wrenches[i] = At(position, f)
	}
	return wrenches
}

// ConeRays is Cone with the owning contact index attached to every ray.
func ConeRays(contact int, position, normal mgl64.Vec3, mu float64, k int) []Ray {
	forces := ConeForces(normal, mu, k)
	rays := make([]Ray, len(forces))
	for i, f := range forces {
		rays[i] = Ray{
			Contact: contact,
			Force:   f,
			Torque:  position.Cross(f),
		}
	}
	return rays
}
