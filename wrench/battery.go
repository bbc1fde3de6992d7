package wrench

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Battery returns the wrenches of the given forces, each applied at origin.
func Battery(origin mgl64.Vec3, forces ...mgl64.Vec3) []Wrench {
	battery := make([]Wrench, len(forces))
	for i, f := range forces {
		battery[i] = At(origin, f)
	}
	return battery
}

// RingBattery applies every base force at origin after rotating it n times by 2π/n
// around axis. The result is ordered rotation-major: for each step, every base force.
func RingBattery(origin, axis mgl64.Vec3, n int, base ...mgl64.Vec3) []Wrench {
	if n <= 0 || len(base) == 0 {
		return nil
	}

	axis = axis.Normalize()
	battery := make([]Wrench, 0, n*len(base))
	for i := 0; i < n; i++ {
		rot := mgl64.QuatRotate(2*math.Pi*float64(i)/float64(n), axis)
		for _, f := range base {
			battery = append(battery, At(origin, rot.Rotate(f)))
		}
	}
	return battery
}
