package wrench

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec3ApproxEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func TestFrame(t *testing.T) {
	tests := []struct {
		name   string
		normal mgl64.Vec3
	}{
		{"x axis", mgl64.Vec3{1, 0, 0}},
		{"y axis", mgl64.Vec3{0, 1, 0}},
		{"z axis", mgl64.Vec3{0, 0, 1}},
		{"negative z", mgl64.Vec3{0, 0, -1}},
		{"z and y large", mgl64.Vec3{0, 0.75, 0.75}.Normalize()},
		{"diagonal", mgl64.Vec3{1, 1, 1}.Normalize()},
		{"non unit", mgl64.Vec3{0, -3, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Frame(tt.normal)
			x, y, z := frame.Col(0), frame.Col(1), frame.Col(2)

			assert.InDelta(t, 1.0, x.Len(), 1e-12)
			assert.InDelta(t, 1.0, y.Len(), 1e-12)
			assert.InDelta(t, 1.0, z.Len(), 1e-12)
			assert.InDelta(t, 0.0, x.Dot(y), 1e-12)
			assert.InDelta(t, 0.0, x.Dot(z), 1e-12)
			assert.InDelta(t, 0.0, y.Dot(z), 1e-12)
			assert.True(t, vec3ApproxEqual(z, tt.normal.Normalize(), 1e-12), "z axis %v should follow normal %v", z, tt.normal)
			assert.True(t, vec3ApproxEqual(x.Cross(y), z, 1e-12), "frame must be right handed")
		})
	}
}

func TestFrameSeedRule(t *testing.T) {
	// |n.z| < 0.7: tangent y = n × Z.
	n := mgl64.Vec3{1, 0, 0}
	frame := Frame(n)
	assert.True(t, vec3ApproxEqual(frame.Col(1), n.Cross(mgl64.Vec3{0, 0, 1}), 1e-12))

	// |n.z| >= 0.7 and |n.y| < 0.7: seeded from Y.
	n = mgl64.Vec3{0, 0, 1}
	frame = Frame(n)
	assert.True(t, vec3ApproxEqual(frame.Col(1), n.Cross(mgl64.Vec3{0, 1, 0}), 1e-12))
}

func TestConeForces(t *testing.T) {
	tests := []struct {
		name   string
		normal mgl64.Vec3
		mu     float64
		k      int
	}{
		{"default rays, mu 1", mgl64.Vec3{0, 0, 1}, 1.0, DefaultConeRays},
		{"low friction", mgl64.Vec3{1, 0, 0}, 0.2, 8},
		{"tilted normal", mgl64.Vec3{0.3, -0.4, 0.866}.Normalize(), 0.5, 4},
		{"three rays", mgl64.Vec3{0, -1, 0}, 0.7, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forces := ConeForces(tt.normal, tt.mu, tt.k)
			require.Len(t, forces, tt.k)

			magnitude := math.Sqrt(tt.mu*tt.mu + 1)
			halfAngle := math.Atan(tt.mu)
			sum := mgl64.Vec3{}
			for i, f := range forces {
				assert.InDelta(t, magnitude, f.Len(), 1e-12, "ray %d magnitude", i)
				angle := math.Acos(f.Normalize().Dot(tt.normal.Normalize()))
				assert.InDelta(t, halfAngle, angle, 1e-9, "ray %d half-angle", i)
				sum = sum.Add(f)
			}
			// tangential parts cancel for a symmetric pyramid
			assert.True(t, vec3ApproxEqual(sum, tt.normal.Normalize().Mul(float64(tt.k)), 1e-9), "sum %v", sum)
		})
	}
}

func TestConeForcesFirstRay(t *testing.T) {
	forces := ConeForces(mgl64.Vec3{0, 0, 1}, 1.0, 6)
	frame := Frame(mgl64.Vec3{0, 0, 1})
	expected := frame.Col(0).Add(frame.Col(2))
	assert.True(t, vec3ApproxEqual(forces[0], expected, 1e-12), "first ray %v, want %v", forces[0], expected)
}

func TestConeForcesEmpty(t *testing.T) {
	assert.Empty(t, ConeForces(mgl64.Vec3{0, 0, 1}, 1, 0))
	assert.Empty(t, Cone(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, 1, -1))
}

func TestConeTorques(t *testing.T) {
	position := mgl64.Vec3{0.03, -0.01, 0.02}
	normal := mgl64.Vec3{-1, 0, 0}

	wrenches := Cone(position, normal, 0.8, 6)
	rays := ConeRays(4, position, normal, 0.8, 6)
	require.Len(t, wrenches, 6)
	require.Len(t, rays, 6)

	for i, w := range wrenches {
		assert.True(t, vec3ApproxEqual(w.Torque(), position.Cross(w.Force()), 1e-15))
		assert.Equal(t, w, rays[i].Wrench())
		assert.Equal(t, 4, rays[i].Contact)
	}
}
