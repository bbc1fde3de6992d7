package surface

import (
	"math"

	"github.com/pkg/errors"
)

// Tolerance bounds how far a point's force and torque may drift from a reference point
// for the two to be considered similar.
type Tolerance struct {
	MaxForceDist  float64 `json:"max_force_dist"`
	MaxTorqueDist float64 `json:"max_torque_dist"`
}

// DefaultPatchTolerance is the tolerance used for self-similarity patches.
func DefaultPatchTolerance() Tolerance {
	return Tolerance{MaxForceDist: 0.1, MaxTorqueDist: 0.02}
}

// DefaultMarginTolerance is the tolerance used for self-tolerance margins.
func DefaultMarginTolerance() Tolerance {
	return Tolerance{MaxForceDist: 0.2, MaxTorqueDist: 0.02}
}

func (t Tolerance) similar(ref, p *Point) bool {
	return ref.Force().Sub(p.Force()).Len() <= t.MaxForceDist &&
		ref.Torque().Sub(p.Torque()).Len() <= t.MaxTorqueDist
}

// walk flood-fills the neighbor graph from the point at index ref. Points similar to
// ref are marked visited, passed to admit in depth-first preorder and expanded. Points
// that are not similar go to reject and stay unvisited, so another path may reach
// them again.
func (s *Sample) walk(ref int, tol Tolerance, admit, reject func(i int)) {
	s.resetVisited()

	refPoint := &s.points[ref]
	stack := []int{ref}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		p := &s.points[i]
		if !tol.similar(refPoint, p) {
			if reject != nil {
				reject(i)
			}
			continue
		}
		if p.visited {
			continue
		}
		p.visited = true
		admit(i)

		nbrs := s.neighbors[i]
		for k := len(nbrs) - 1; k >= 0; k-- {
			stack = append(stack, nbrs[k])
		}
	}
}

// Patch returns the ids of the points reachable from refID through similar points,
// refID first, in depth-first preorder.
func (s *Sample) Patch(refID int, tol Tolerance) ([]int, error) {
	ref, ok := s.index[refID]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPoint, "patch reference %d", refID)
	}

	var ids []int
	s.walk(ref, tol, func(i int) {
		ids = append(ids, s.points[i].ID)
	}, nil)
	return ids, nil
}

// Margin returns the distance from refID to the closest point that borders its patch
// without being similar to it. The boolean is false when the patch has no such border
// point.
func (s *Sample) Margin(refID int, tol Tolerance) (float64, bool, error) {
	ref, ok := s.index[refID]
	if !ok {
		return 0, false, errors.Wrapf(ErrUnknownPoint, "margin reference %d", refID)
	}

	origin := s.points[ref].Position
	minDist := math.Inf(1)
	s.walk(ref, tol, func(int) {}, func(i int) {
		minDist = math.Min(minDist, s.points[i].Position.Sub(origin).Len())
	})

	if math.IsInf(minDist, 1) {
		return 0, false, nil
	}
	return minDist, true, nil
}
