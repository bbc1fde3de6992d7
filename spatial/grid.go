// Package spatial indexes 3-D points in a uniform hashed grid for radius and nearest
// point queries.
package spatial

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// CellKey - integer coordinates of a grid cell
type CellKey struct {
	X, Y, Z int
}

type entry struct {
	index    int
	position mgl64.Vec3
}

// Cell holds the entries hashed to one bucket. Distinct cell keys may share a bucket.
type Cell struct {
	entries []entry
}

// Grid is a uniform grid hashed into a fixed power-of-two number of buckets.
type Grid struct {
	cellSize float64
	cells    []Cell
	cellMask int
	bounds   AABB
	count    int
}

// NewGrid creates a grid with the given cell edge length. numCells is rounded up to a
// power of two.
func NewGrid(cellSize float64, numCells int) *Grid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].entries = make([]entry, 0, 8)
	}

	return &Grid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

// nextPowerOfTwo rounds n up to the next power of two
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Len is the number of inserted points.
func (g *Grid) Len() int {
	return g.count
}

// Bounds is the bounding box of the inserted points. It is the zero box when the grid
// is empty.
func (g *Grid) Bounds() AABB {
	return g.bounds
}

// Insert adds the point identified by index.
func (g *Grid) Insert(index int, position mgl64.Vec3) {
	cellIdx := g.hashCell(g.worldToCell(position))
	g.cells[cellIdx].entries = append(g.cells[cellIdx].entries, entry{index: index, position: position})

	if g.count == 0 {
		g.bounds = AABB{Min: position, Max: position}
	} else {
		g.bounds = g.bounds.Extend(position)
	}
	g.count++
}

func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i].entries = g.cells[i].entries[:0]
	}
	g.bounds = AABB{}
	g.count = 0
}

// SortCells orders every bucket by index so queries visit entries deterministically.
func (g *Grid) SortCells() {
	for i := range g.cells {
		if len(g.cells[i].entries) > 1 {
			slices.SortFunc(g.cells[i].entries, func(a, b entry) int {
				return a.index - b.index
			})
		}
	}
}

// Within returns the sorted indices of the points at distance <= radius from position.
func (g *Grid) Within(position mgl64.Vec3, radius float64) []int {
	var found []int
	g.visit(position, radius, func(e entry) {
		if e.position.Sub(position).Len() <= radius {
			found = append(found, e.index)
		}
	})

	slices.Sort(found)
	return slices.Compact(found)
}

// Nearest returns the index of the point closest to position. Ties resolve to the
// smallest index. It returns false on an empty grid.
func (g *Grid) Nearest(position mgl64.Vec3) (int, bool) {
	if g.count == 0 {
		return -1, false
	}

	limit := g.bounds.FarthestDistance(position)
	radius := g.cellSize
	for {
		best, bestDist := -1, math.Inf(1)
		g.visit(position, radius, func(e entry) {
			d := e.position.Sub(position).Len()
			if d > radius {
				return
			}
			if d < bestDist || (d == bestDist && e.index < best) {
				best, bestDist = e.index, d
			}
		})
		if best >= 0 {
			return best, true
		}
		if radius >= limit {
			// unreachable: every point lies within limit
			return -1, false
		}
		radius = min(radius*2, limit)
	}
}

// visit calls fn for every entry stored in the buckets covering the cube of half-size
// radius around position. Buckets shared by several covered cells are visited once.
func (g *Grid) visit(position mgl64.Vec3, radius float64, fn func(e entry)) {
	minCell := g.worldToCell(position.Sub(mgl64.Vec3{radius, radius, radius}))
	maxCell := g.worldToCell(position.Add(mgl64.Vec3{radius, radius, radius}))

	span := (maxCell.X - minCell.X + 1) * (maxCell.Y - minCell.Y + 1) * (maxCell.Z - minCell.Z + 1)
	if span >= len(g.cells) {
		// the query covers more cells than there are buckets: scan everything
		for i := range g.cells {
			for _, e := range g.cells[i].entries {
				fn(e)
			}
		}
		return
	}

	seen := make(map[int]struct{}, span)
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := g.hashCell(CellKey{x, y, z})
				if _, ok := seen[cellIdx]; ok {
					continue
				}
				seen[cellIdx] = struct{}{}
				for _, e := range g.cells[cellIdx].entries {
					fn(e)
				}
			}
		}
	}
}

// worldToCell converts a position to cell coordinates
func (g *Grid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / g.cellSize)),
		Y: int(math.Floor(pos.Y() / g.cellSize)),
		Z: int(math.Floor(pos.Z() / g.cellSize)),
	}
}

// hashCell hashes a cell to a bucket index
func (g *Grid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & g.cellMask
}
