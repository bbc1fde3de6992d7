// Package surface grows contact regions over a sampled object surface.
//
// A Sample is a point cloud with a neighbor graph, as produced by a mesh sampler. Three
// region queries run on it: the self-similarity patch of a point, the self-tolerance
// margin of a point, and the independent contact regions of a grasp.
//
// A Sample is not safe for concurrent use: every query resets and updates per-point
// working state.
package surface

import (
	stderrors "errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/icr/contact"
	"github.com/akmonengine/icr/spatial"
)

var (
	// ErrInvalidSample is returned by NewSample for duplicate ids, dangling neighbor ids
	// and zero normals.
	ErrInvalidSample = stderrors.New("surface: invalid sample")

	// ErrUnknownPoint is returned when a query names an id that is not in the sample.
	ErrUnknownPoint = stderrors.New("surface: unknown point")

	// ErrEmptySample is returned by nearest point queries on a sample without points.
	ErrEmptySample = stderrors.New("surface: empty sample")
)

// Point is one sample of the object surface, in the object frame.
type Point struct {
	ID        int
	Position  mgl64.Vec3
	Normal    mgl64.Vec3
	Neighbors []int
	// Allowed is false for points a contact may not be placed on.
	Allowed bool

	// Regions lists the contacts whose independent region holds the point, as of the
	// last CoverageRegions call.
	Regions []int

	visited bool
}

// Force is the wrench force of a unit push along the point normal.
func (p *Point) Force() mgl64.Vec3 {
	return p.Normal
}

// Torque is the moment of Force about the origin.
func (p *Point) Torque() mgl64.Vec3 {
	return p.Position.Cross(p.Normal)
}

// Sample is a validated set of surface points.
type Sample struct {
	points    []Point
	index     map[int]int
	neighbors [][]int
	grid      *spatial.Grid
}

// NewSample validates points and indexes them. The points are copied; their Regions
// are cleared.
func NewSample(points []Point) (*Sample, error) {
	s := &Sample{
		points:    make([]Point, len(points)),
		index:     make(map[int]int, len(points)),
		neighbors: make([][]int, len(points)),
	}

	var bounds spatial.AABB
	for i, p := range points {
		if _, ok := s.index[p.ID]; ok {
			return nil, errors.Wrapf(ErrInvalidSample, "duplicate id %d", p.ID)
		}
		if p.Normal.Len() == 0 {
			return nil, errors.Wrapf(ErrInvalidSample, "point %d has a zero normal", p.ID)
		}
		s.index[p.ID] = i

		p.Regions = nil
		p.visited = false
		s.points[i] = p

		if i == 0 {
			bounds = spatial.AABB{Min: p.Position, Max: p.Position}
		} else {
			bounds = bounds.Extend(p.Position)
		}
	}

	for i, p := range s.points {
		s.neighbors[i] = make([]int, len(p.Neighbors))
		for k, id := range p.Neighbors {
			j, ok := s.index[id]
			if !ok {
				return nil, errors.Wrapf(ErrInvalidSample, "point %d lists unknown neighbor %d", p.ID, id)
			}
			s.neighbors[i][k] = j
		}
	}

	s.grid = spatial.NewGrid(cellSize(bounds, len(points)), len(points))
	for i, p := range s.points {
		s.grid.Insert(i, p.Position)
	}
	s.grid.SortCells()

	return s, nil
}

// cellSize spreads n points over roughly n cells of the bounding box.
func cellSize(bounds spatial.AABB, n int) float64 {
	extent := bounds.Max.Sub(bounds.Min)
	longest := math.Max(extent.X(), math.Max(extent.Y(), extent.Z()))
	if n == 0 || longest == 0 {
		return 1
	}
	return longest / math.Max(1, math.Cbrt(float64(n)))
}

// Len is the number of points.
func (s *Sample) Len() int {
	return len(s.points)
}

// Points returns the points in sample order. The slice is owned by the sample.
func (s *Sample) Points() []Point {
	return s.points
}

// Point returns the point with the given id.
func (s *Sample) Point(id int) (*Point, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.points[i], true
}

// Nearest returns the id of the point closest to position.
func (s *Sample) Nearest(position mgl64.Vec3) (int, error) {
	i, ok := s.grid.Nearest(position)
	if !ok {
		return 0, ErrEmptySample
	}
	return s.points[i].ID, nil
}

// NearestContactPoints returns, for every contact, the id of the sample point closest
// to its position.
func (s *Sample) NearestContactPoints(contacts []contact.Contact) ([]int, error) {
	ids := make([]int, len(contacts))
	for i, c := range contacts {
		id, err := s.Nearest(c.Position)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func (s *Sample) resetVisited() {
	for i := range s.points {
		s.points[i].visited = false
	}
}
