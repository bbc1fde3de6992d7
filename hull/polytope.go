package hull

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// facet is a simplicial facet while the polytope is being built.
type facet struct {
	normal   []float64
	offset   float64
	vertices []int // sorted
	alive    bool
}

func (f *facet) distance(p []float64) float64 {
	return floats.Dot(f.normal, p) + f.offset
}

// polytopeBuilder holds the polytope during beneath-beyond expansion.
type polytopeBuilder struct {
	points [][]float64
	dim    int
	scale  float64

	// interior is the centroid of the initial simplex. It stays strictly inside the
	// polytope as it grows and orients every new facet.
	interior []float64

	facets []*facet

	// ridges maps a ridge (a facet minus one vertex) to the facets sharing it.
	ridges map[string][]int

	inSimplex []bool

	// visibleIndices is reused across insertions.
	visibleIndices []int
}

func newPolytopeBuilder(points [][]float64) (*polytopeBuilder, error) {
	dim, scale, err := validate(points)
	if err != nil {
		return nil, err
	}

	return &polytopeBuilder{
		points:    points,
		dim:       dim,
		scale:     scale,
		ridges:    make(map[string][]int),
		inSimplex: make([]bool, len(points)),
	}, nil
}

func (b *polytopeBuilder) tolerance() float64 {
	return visibilityTolerance * max(1, b.scale)
}

// buildInitialSimplex picks dim+1 affinely independent points greedily: the point with
// the smallest first coordinate, then repeatedly the point farthest from the affine span
// of the points chosen so far.
func (b *polytopeBuilder) buildInitialSimplex() error {
	first := 0
	for i, p := range b.points {
		if p[0] < b.points[first][0] {
			first = i
		}
	}

	origin := b.points[first]
	chosen := []int{first}
	b.inSimplex[first] = true

	basis := make([][]float64, 0, b.dim)
	residual := make([]float64, b.dim)
	for len(chosen) <= b.dim {
		best, bestNorm := -1, 0.0
		var bestResidual []float64

		for i, p := range b.points {
			if b.inSimplex[i] {
				continue
			}
			floats.SubTo(residual, p, origin)
			orthogonalize(residual, basis)
			norm := floats.Norm(residual, 2)
			if norm > bestNorm {
				best, bestNorm = i, norm
				bestResidual = slices.Clone(residual)
			}
		}

		if best < 0 || bestNorm <= rankTolerance*b.scale {
			return fmt.Errorf("%w: points span %d of %d dimensions", ErrDegenerate, len(chosen)-1, b.dim)
		}

		floats.Scale(1/bestNorm, bestResidual)
		basis = append(basis, bestResidual)
		chosen = append(chosen, best)
		b.inSimplex[best] = true
	}

	b.interior = make([]float64, b.dim)
	for _, i := range chosen {
		floats.Add(b.interior, b.points[i])
	}
	floats.Scale(1/float64(len(chosen)), b.interior)

	for skip := range chosen {
		vertices := make([]int, 0, b.dim)
		for j, i := range chosen {
			if j != skip {
				vertices = append(vertices, i)
			}
		}
		if err := b.addFacet(vertices); err != nil {
			return err
		}
	}

	return nil
}

// orthogonalize removes from v its components along the orthonormal basis. The
// projection runs twice to keep v orthogonal in floating point.
func orthogonalize(v []float64, basis [][]float64) {
	for pass := 0; pass < 2; pass++ {
		for _, e := range basis {
			floats.AddScaled(v, -floats.Dot(v, e), e)
		}
	}
}

// insertionOrder lists the points outside the initial simplex, farthest from the
// interior point first. Ties keep input order.
func (b *polytopeBuilder) insertionOrder() []int {
	order := make([]int, 0, len(b.points))
	dist := make([]float64, len(b.points))
	for i, p := range b.points {
		if b.inSimplex[i] {
			continue
		}
		dist[i] = floats.Distance(p, b.interior, 2)
		order = append(order, i)
	}

	slices.SortStableFunc(order, func(i, j int) int {
		return cmp.Compare(dist[j], dist[i])
	})
	return order
}

// createFacetOutward computes the hyperplane through the given dim vertices, with the
// normal pointing away from the interior point.
func (b *polytopeBuilder) createFacetOutward(vertices []int) (*facet, error) {
	origin := b.points[vertices[0]]

	edges := mat.NewDense(b.dim-1, b.dim, nil)
	for r := 1; r < b.dim; r++ {
		p := b.points[vertices[r]]
		for c := 0; c < b.dim; c++ {
			edges.Set(r-1, c, p[c]-origin[c])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(edges, mat.SVDFull) {
		return nil, fmt.Errorf("%w: facet %v factorization failed", ErrDegenerate, vertices)
	}
	values := svd.Values(nil)
	if values[len(values)-1] <= values[0]*1e-14 {
		return nil, fmt.Errorf("%w: facet %v is flat", ErrDegenerate, vertices)
	}

	var v mat.Dense
	svd.VTo(&v)
	normal := mat.Col(nil, b.dim-1, &v)
	floats.Scale(1/floats.Norm(normal, 2), normal)

	// average over the vertices to spread rounding
	offset := 0.0
	for _, i := range vertices {
		offset -= floats.Dot(normal, b.points[i])
	}
	offset /= float64(len(vertices))

	if floats.Dot(normal, b.interior)+offset > 0 {
		floats.Scale(-1, normal)
		offset = -offset
	}

	return &facet{normal: normal, offset: offset, vertices: vertices, alive: true}, nil
}

// addFacet creates the facet on the given vertices and registers its ridges.
func (b *polytopeBuilder) addFacet(vertices []int) error {
	vertices = slices.Clone(vertices)
	slices.Sort(vertices)

	f, err := b.createFacetOutward(vertices)
	if err != nil {
		return err
	}

	id := len(b.facets)
	b.facets = append(b.facets, f)
	for skip := range f.vertices {
		key := ridgeKey(f.vertices, skip)
		b.ridges[key] = append(b.ridges[key], id)
	}
	return nil
}

// removeFacet unregisters a facet from the ridge map.
func (b *polytopeBuilder) removeFacet(id int) {
	f := b.facets[id]
	f.alive = false
	for skip := range f.vertices {
		key := ridgeKey(f.vertices, skip)
		shared := slices.DeleteFunc(b.ridges[key], func(other int) bool { return other == id })
		if len(shared) == 0 {
			delete(b.ridges, key)
		} else {
			b.ridges[key] = shared
		}
	}
}

// findVisibleFacets collects the live facets that point i lies strictly beyond.
func (b *polytopeBuilder) findVisibleFacets(i int) {
	b.visibleIndices = b.visibleIndices[:0]
	tol := b.tolerance()
	for id, f := range b.facets {
		if f.alive && f.distance(b.points[i]) > tol {
			b.visibleIndices = append(b.visibleIndices, id)
		}
	}
}

// findHorizonRidges returns the ridges shared by a visible and a non-visible facet.
func (b *polytopeBuilder) findHorizonRidges() [][]int {
	visible := make(map[int]struct{}, len(b.visibleIndices))
	for _, id := range b.visibleIndices {
		visible[id] = struct{}{}
	}

	var horizon [][]int
	for _, id := range b.visibleIndices {
		f := b.facets[id]
		for skip := range f.vertices {
			for _, other := range b.ridges[ridgeKey(f.vertices, skip)] {
				if _, ok := visible[other]; ok {
					continue
				}
				horizon = append(horizon, withoutIndex(f.vertices, skip))
				break
			}
		}
	}
	return horizon
}

// addPointAndRebuildFacets expands the polytope with point i:
//  1. Finds the facets the point sees
//  2. Collects the horizon ridges of the visible region
//  3. Removes the visible facets
//  4. Connects every horizon ridge to the point
//
// A point that sees no facet lies inside and is skipped.
func (b *polytopeBuilder) addPointAndRebuildFacets(i int) error {
	b.findVisibleFacets(i)
	if len(b.visibleIndices) == 0 {
		return nil
	}

	horizon := b.findHorizonRidges()
	for _, id := range b.visibleIndices {
		b.removeFacet(id)
	}

	for _, ridge := range horizon {
		if err := b.addFacet(append(ridge, i)); err != nil {
			return err
		}
	}
	return nil
}

// mergedFacets returns the live facets, merging facets that share a hyperplane. Order
// follows facet creation.
func (b *polytopeBuilder) mergedFacets() []Facet {
	var out []Facet
	offsetTol := mergeTolerance * max(1, b.scale)

	for _, f := range b.facets {
		if !f.alive {
			continue
		}

		merged := false
		for k := range out {
			if math.Abs(out[k].Offset-f.offset) < offsetTol && sameDirection(out[k].Normal, f.normal) {
				out[k].Vertices = mergeSorted(out[k].Vertices, f.vertices)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, Facet{
				Normal:   slices.Clone(f.normal),
				Offset:   f.offset,
				Vertices: slices.Clone(f.vertices),
			})
		}
	}

	return out
}

func sameDirection(a, b []float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) >= mergeTolerance {
			return false
		}
	}
	return true
}

func mergeSorted(a, b []int) []int {
	out := append(slices.Clone(a), b...)
	slices.Sort(out)
	return slices.Compact(out)
}

func withoutIndex(vertices []int, skip int) []int {
	out := make([]int, 0, len(vertices)-1)
	out = append(out, vertices[:skip]...)
	return append(out, vertices[skip+1:]...)
}

// ridgeKey encodes the sorted vertices minus the one at skip.
func ridgeKey(vertices []int, skip int) string {
	buf := make([]byte, 0, 4*len(vertices))
	for j, v := range vertices {
		if j == skip {
			continue
		}
		buf = strconv.AppendInt(buf, int64(v), 10)
		buf = append(buf, ',')
	}
	return string(buf)
}
