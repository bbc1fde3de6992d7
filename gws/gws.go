// Package gws builds the grasp wrench space of a set of frictional point contacts and
// scores it.
//
// The grasp wrench space is the convex hull of the friction cone generators of every
// contact, expressed as wrenches about the object-frame origin. Each facet records the
// contacts whose generators lie on it; those facet/contact maps drive the independent
// contact region computation in package surface.
package gws

import (
	stderrors "errors"
	"math"

	"github.com/pkg/errors"

	"github.com/akmonengine/icr/contact"
	"github.com/akmonengine/icr/hull"
	"github.com/akmonengine/icr/wrench"
)

var (
	// ErrDegenerate is returned when the wrench points do not span the 6-D wrench space.
	ErrDegenerate = stderrors.New("gws: degenerate wrench space")

	// ErrNoContacts is returned when the contact list is empty.
	ErrNoContacts = stderrors.New("gws: no contacts")
)

const (
	// OnFacetTolerance is the largest distance of a generator to a facet for its contact
	// to be recorded as supporting the facet.
	OnFacetTolerance = 1e-8

	// DefaultFriction is the Coulomb friction coefficient used when none is configured.
	DefaultFriction = 1.0
)

// Params controls the friction cone discretization.
type Params struct {
	Friction float64
	ConeRays int
}

// DefaultParams returns a friction coefficient of 1 and six cone generators.
func DefaultParams() Params {
	return Params{Friction: DefaultFriction, ConeRays: wrench.DefaultConeRays}
}

// Facet is a supporting hyperplane of the grasp wrench space. For any wrench w,
// Normal·w + Offset is the signed distance of w to the hyperplane.
type Facet struct {
	Normal wrench.Wrench
	Offset float64
}

// Distance returns the signed distance of w to the facet's hyperplane.
func (f Facet) Distance(w wrench.Wrench) float64 {
	return f.Normal.Dot(w) + f.Offset
}

// GraspWrenchSpace is the facet description of the grasp wrench space.
type GraspWrenchSpace struct {
	Facets []Facet

	// FacetContacts lists, per facet, the sorted indices of the contacts with at least
	// one generator on the facet.
	FacetContacts [][]int

	// ContactFacets is the transpose of FacetContacts: per contact, the sorted facet
	// indices it supports.
	ContactFacets [][]int

	// Rays is the number of generators the hull was built from.
	Rays   int
	Params Params
}

// ForceClosure reports whether the origin lies strictly inside the wrench space.
// A nil space is not force closure.
func (g *GraspWrenchSpace) ForceClosure() bool {
	if g == nil || len(g.Facets) == 0 {
		return false
	}
	for _, f := range g.Facets {
		if f.Offset >= 0 {
			return false
		}
	}
	return true
}

// Rays returns the friction cone generators of every contact, in contact order.
func Rays(contacts []contact.Contact, params Params) []wrench.Ray {
	rays := make([]wrench.Ray, 0, len(contacts)*max(params.ConeRays, 0))
	for i, c := range contacts {
		rays = append(rays, wrench.ConeRays(i, c.Position, c.Normal, params.Friction, params.ConeRays)...)
	}
	return rays
}

// Build computes the grasp wrench space of contacts. It returns a nil space and an
// error wrapping ErrDegenerate when the hull cannot be built, for example when fewer
// than seven generators are affinely independent.
func Build(contacts []contact.Contact, params Params) (*GraspWrenchSpace, error) {
	if len(contacts) == 0 {
		return nil, ErrNoContacts
	}

	rays := Rays(contacts, params)
	points := make([][]float64, len(rays))
	for i, r := range rays {
		points[i] = r.Wrench().Slice()
	}

	h, err := hull.Compute(points)
	if err != nil {
		if stderrors.Is(err, hull.ErrDegenerate) {
			return nil, errors.Wrapf(ErrDegenerate, "%d contacts, %d rays: %v", len(contacts), len(rays), err)
		}
		return nil, errors.Wrap(err, "gws: hull")
	}

	g := &GraspWrenchSpace{
		Facets:        make([]Facet, len(h.Facets)),
		FacetContacts: make([][]int, len(h.Facets)),
		ContactFacets: make([][]int, len(contacts)),
		Rays:          len(rays),
		Params:        params,
	}
	for k, hf := range h.Facets {
		var n wrench.Wrench
		copy(n[:], hf.Normal)
		g.Facets[k] = Facet{Normal: n, Offset: hf.Offset}
	}

	// rays are grouped by contact in increasing order, so both maps come out sorted
	for k, f := range g.Facets {
		for _, r := range rays {
			if math.Abs(f.Distance(r.Wrench())) >= OnFacetTolerance {
				continue
			}
			owners := g.FacetContacts[k]
			if len(owners) > 0 && owners[len(owners)-1] == r.Contact {
				continue
			}
			g.FacetContacts[k] = append(owners, r.Contact)
			g.ContactFacets[r.Contact] = append(g.ContactFacets[r.Contact], k)
		}
	}

	return g, nil
}
