// Package wrench models 6-D wrenches (force and torque about the object-frame origin)
// and the discretized friction cones that generate them at a contact.
package wrench

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats"
)

// Dim is the dimension of the wrench space.
const Dim = 6

// Wrench is a force (components 0..2) stacked on a torque (components 3..5).
type Wrench [Dim]float64

// New stacks a force and a torque into a wrench.
func New(force, torque mgl64.Vec3) Wrench {
	return Wrench{force[0], force[1], force[2], torque[0], torque[1], torque[2]}
}

// At returns the wrench produced by force applied at point, with the torque taken
// about the origin.
func At(point, force mgl64.Vec3) Wrench {
	return New(force, point.Cross(force))
}

func (w Wrench) Force() mgl64.Vec3 {
	return mgl64.Vec3{w[0], w[1], w[2]}
}

func (w Wrench) Torque() mgl64.Vec3 {
	return mgl64.Vec3{w[3], w[4], w[5]}
}

// Dot returns the 6-D inner product.
func (w Wrench) Dot(o Wrench) float64 {
	return floats.Dot(w[:], o[:])
}

// Scale multiplies every component by k.
func (w Wrench) Scale(k float64) Wrench {
	floats.Scale(k, w[:])
	return w
}

// Norm is the Euclidean length in wrench space.
func (w Wrench) Norm() float64 {
	return floats.Norm(w[:], 2)
}

// Slice returns a copy of the components, as consumed by the hull primitive.
func (w Wrench) Slice() []float64 {
	s := make([]float64, Dim)
	copy(s, w[:])
	return s
}

func (w Wrench) String() string {
	return fmt.Sprintf("f=(%.6g %.6g %.6g) t=(%.6g %.6g %.6g)", w[0], w[1], w[2], w[3], w[4], w[5])
}

// Ray is one generator of a contact's discretized friction cone.
// Contact indexes the owning contact in the list the cone was built for.
type Ray struct {
	Contact int
	Force   mgl64.Vec3
	Torque  mgl64.Vec3
}

// Wrench returns the ray as a point of the wrench space.
func (r Ray) Wrench() Wrench {
	return New(r.Force, r.Torque)
}
