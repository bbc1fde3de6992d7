package surface

import (
	"math"
	"runtime"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/akmonengine/icr/contact"
	"github.com/akmonengine/icr/gws"
	"github.com/akmonengine/icr/wrench"
)

// DefaultQualityMargin is the amount by which a relocated contact must still push past
// every facet it supported.
const DefaultQualityMargin = 0.004

// CoverageOptions tunes CoverageRegions.
type CoverageOptions struct {
	QualityMargin float64
	// MaxNormalAngle, in radians, skips points whose normal is further than this from
	// the contact normal. Zero disables the filter.
	MaxNormalAngle float64
	Workers        int
}

func DefaultCoverageOptions() CoverageOptions {
	return CoverageOptions{
		QualityMargin: DefaultQualityMargin,
		Workers:       runtime.GOMAXPROCS(0),
	}
}

// ContactRegions holds, per contact, the ids of the points of its independent contact
// region in sample order.
type ContactRegions [][]int

// Covered returns the sorted ids of the points that lie in at least one region.
func (r ContactRegions) Covered() []int {
	ids := lo.Uniq(lo.Flatten([][]int(r)))
	slices.Sort(ids)
	return ids
}

// Sizes returns the number of points of every region.
func (r ContactRegions) Sizes() []int {
	return lo.Map([][]int(r), func(ids []int, _ int) int {
		return len(ids)
	})
}

// Coverable reports whether contact c of g may be moved to position with the given
// normal: for every facet c supports, one of the friction cone generators at the new
// location must have a component along the facet normal larger than margin.
func Coverable(g *gws.GraspWrenchSpace, c int, position, normal mgl64.Vec3, margin float64) bool {
	rays := wrench.Cone(position, normal, g.Params.Friction, g.Params.ConeRays)
	return coverable(g, c, rays, margin)
}

func coverable(g *gws.GraspWrenchSpace, c int, rays []wrench.Wrench, margin float64) bool {
	for _, k := range g.ContactFacets[c] {
		n := g.Facets[k].Normal
		if !slices.ContainsFunc(rays, func(w wrench.Wrench) bool {
			return n.Dot(w) > margin
		}) {
			return false
		}
	}
	return true
}

// CoverageRegions computes the independent contact region of every contact of g over
// the allowed points of the sample. contacts must be the contacts g was built from;
// their normals only serve the MaxNormalAngle filter.
//
// Every point's Regions is rewritten. A nil or non force-closure space yields an empty
// region per contact.
func (s *Sample) CoverageRegions(g *gws.GraspWrenchSpace, contacts []contact.Contact, opts CoverageOptions) (ContactRegions, error) {
	for i := range s.points {
		s.points[i].Regions = nil
	}

	regions := make(ContactRegions, len(contacts))
	if !g.ForceClosure() {
		return regions, nil
	}
	if len(contacts) != len(g.ContactFacets) {
		return nil, errors.Errorf("surface: %d contacts for a wrench space built from %d", len(contacts), len(g.ContactFacets))
	}

	minCos := -1.0
	if opts.MaxNormalAngle > 0 {
		minCos = math.Cos(opts.MaxNormalAngle)
	}

	candidates := make([]int, 0, len(s.points))
	for i := range s.points {
		if s.points[i].Allowed {
			candidates = append(candidates, i)
		}
	}

	task(opts.Workers, candidates, func(i int) {
		p := &s.points[i]
		normal := p.Normal.Normalize()
		rays := wrench.Cone(p.Position, p.Normal, g.Params.Friction, g.Params.ConeRays)
		for c := range contacts {
			if opts.MaxNormalAngle > 0 && normal.Dot(contacts[c].Normal.Normalize()) < minCos {
				continue
			}
			if coverable(g, c, rays, opts.QualityMargin) {
				p.Regions = append(p.Regions, c)
			}
		}
	})

	for _, p := range s.points {
		for _, c := range p.Regions {
			regions[c] = append(regions[c], p.ID)
		}
	}
	return regions, nil
}
