package surface

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// planePoints samples an n×n grid of the z=0 plane centred on the origin, with
// 4-neighborhoods. The point at row i, column j has id base+i*n+j.
func planePoints(n int, spacing float64, base int) []Point {
	c := float64(n-1) / 2
	points := make([]Point, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var nbrs []int
			if j > 0 {
				nbrs = append(nbrs, base+i*n+j-1)
			}
			if j < n-1 {
				nbrs = append(nbrs, base+i*n+j+1)
			}
			if i > 0 {
				nbrs = append(nbrs, base+(i-1)*n+j)
			}
			if i < n-1 {
				nbrs = append(nbrs, base+(i+1)*n+j)
			}
			points = append(points, Point{
				ID:        base + i*n + j,
				Position:  mgl64.Vec3{(float64(i) - c) * spacing, (float64(j) - c) * spacing, 0},
				Normal:    mgl64.Vec3{0, 0, 1},
				Neighbors: nbrs,
				Allowed:   true,
			})
		}
	}
	return points
}

// cylinderPoints samples the side of a z-aligned cylinder with outward normals.
// Rings wrap around; rows connect to the rows above and below.
func cylinderPoints(radius float64, around, rows int, pitch float64) []Point {
	id := func(r, a int) int { return r*around + (a+around)%around }

	points := make([]Point, 0, around*rows)
	for r := 0; r < rows; r++ {
		for a := 0; a < around; a++ {
			theta := 2 * math.Pi * float64(a) / float64(around)
			n := mgl64.Vec3{math.Cos(theta), math.Sin(theta), 0}
			nbrs := []int{id(r, a-1), id(r, a+1)}
			if r > 0 {
				nbrs = append(nbrs, id(r-1, a))
			}
			if r < rows-1 {
				nbrs = append(nbrs, id(r+1, a))
			}
			points = append(points, Point{
				ID:        id(r, a),
				Position:  n.Mul(radius).Add(mgl64.Vec3{0, 0, float64(r) * pitch}),
				Normal:    n,
				Neighbors: nbrs,
				Allowed:   true,
			})
		}
	}
	return points
}

// similarComponent is the reference flood fill: breadth-first over the neighbor graph,
// restricted to the points similar to ref.
func similarComponent(points []Point, refID int, tol Tolerance) []int {
	byID := make(map[int]*Point, len(points))
	for i := range points {
		byID[points[i].ID] = &points[i]
	}
	ref := byID[refID]

	seen := map[int]bool{refID: true}
	queue := []int{refID}
	var out []int
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		for _, n := range byID[id].Neighbors {
			if !seen[n] && tol.similar(ref, byID[n]) {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return out
}
