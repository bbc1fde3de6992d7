// Package hull computes the convex hull of a point set in d dimensions as a list of
// supporting hyperplanes.
//
// The hull is grown by the beneath-beyond method: starting from a d-simplex, every
// remaining point removes the facets it sees and is connected to the horizon ridges of
// the removed region. Facets are simplicial while the hull is built; facets sharing a
// hyperplane are merged in the result.
package hull

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrDegenerate is returned when the points do not span a full-dimensional polytope.
var ErrDegenerate = errors.New("hull: degenerate input")

const (
	// visibilityTolerance is the distance, relative to the coordinate scale, a point
	// must lie beyond a facet for the facet to be replaced.
	visibilityTolerance = 1e-10

	// rankTolerance is the relative distance below which a point is considered to lie
	// in the affine span of the simplex chosen so far.
	rankTolerance = 1e-9

	// mergeTolerance is the largest difference of normal components and offsets
	// between two facets reported as one.
	mergeTolerance = 1e-9
)

// Facet is a supporting hyperplane of the hull. For any point x, Normal·x + Offset is the
// signed distance of x to the hyperplane, negative on the side of the hull.
type Facet struct {
	Normal   []float64
	Offset   float64
	Vertices []int
}

// Distance returns the signed distance of p to the facet's hyperplane.
func (f Facet) Distance(p []float64) float64 {
	return floats.Dot(f.Normal, p) + f.Offset
}

// Hull is the facet description of a convex polytope.
type Hull struct {
	Dim    int
	Facets []Facet
}

// Contains reports whether p lies inside the hull or within tol of its boundary.
func (h *Hull) Contains(p []float64, tol float64) bool {
	for _, f := range h.Facets {
		if f.Distance(p) > tol {
			return false
		}
	}
	return true
}

// Compute returns the convex hull of points. All points must have the same dimension,
// at least 2. It returns an error wrapping ErrDegenerate when fewer than dim+1 points are
// affinely independent.
func Compute(points [][]float64) (*Hull, error) {
	b, err := newPolytopeBuilder(points)
	if err != nil {
		return nil, err
	}

	if err := b.buildInitialSimplex(); err != nil {
		return nil, err
	}

	for _, i := range b.insertionOrder() {
		if err := b.addPointAndRebuildFacets(i); err != nil {
			return nil, err
		}
	}

	return &Hull{Dim: b.dim, Facets: b.mergedFacets()}, nil
}

func validate(points [][]float64) (dim int, scale float64, err error) {
	if len(points) == 0 {
		return 0, 0, fmt.Errorf("%w: no points", ErrDegenerate)
	}

	dim = len(points[0])
	if dim < 2 {
		return 0, 0, fmt.Errorf("hull: dimension %d is not supported", dim)
	}
	if len(points) < dim+1 {
		return 0, 0, fmt.Errorf("%w: %d points in %d dimensions", ErrDegenerate, len(points), dim)
	}

	for i, p := range points {
		if len(p) != dim {
			return 0, 0, fmt.Errorf("hull: point %d has dimension %d, expected %d", i, len(p), dim)
		}
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, 0, fmt.Errorf("hull: point %d has a non-finite coordinate", i)
			}
			scale = max(scale, math.Abs(v))
		}
	}
	if scale == 0 {
		return 0, 0, fmt.Errorf("%w: all points at the origin", ErrDegenerate)
	}

	return dim, scale, nil
}
