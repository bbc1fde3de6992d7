package spatial

import "github.com/go-gl/mathgl/mgl64"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Extend grows the box so it contains point.
func (a AABB) Extend(point mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		a.Min[i] = min(a.Min[i], point[i])
		a.Max[i] = max(a.Max[i], point[i])
	}
	return a
}

// FarthestDistance is the largest distance from point to any point of the box.
func (a AABB) FarthestDistance(point mgl64.Vec3) float64 {
	var far mgl64.Vec3
	for i := 0; i < 3; i++ {
		far[i] = max(point[i]-a.Min[i], a.Max[i]-point[i])
	}
	return far.Len()
}
