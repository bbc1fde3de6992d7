package gws

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/akmonengine/icr/contact"
	"github.com/akmonengine/icr/wrench"
)

// boxGrasp returns one contact at the centre of every face of a cube of half size h,
// with normals pointing inwards.
func boxGrasp(h float64) []contact.Contact {
	axes := []mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	contacts := make([]contact.Contact, len(axes))
	for i, a := range axes {
		contacts[i] = contact.Contact{Position: a.Mul(h), Normal: a.Mul(-1)}
	}
	return contacts
}

// triangleGrasp places three contacts at 120° on a circle of radius 0.03 in the z=0
// plane, pushing towards its centre.
func triangleGrasp() []contact.Contact {
	positions := []mgl64.Vec3{{0.03, 0, 0}, {-0.015, 0.026, 0}, {-0.015, -0.026, 0}}
	contacts := make([]contact.Contact, len(positions))
	for i, p := range positions {
		contacts[i] = contact.Contact{Position: p, Normal: p.Mul(-1).Normalize()}
	}
	return contacts
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name     string
		contacts []contact.Contact
		want     error
	}{
		{
			name:     "no contacts",
			contacts: nil,
			want:     ErrNoContacts,
		},
		{
			name: "single contact",
			contacts: []contact.Contact{
				{Position: mgl64.Vec3{0.05, 0, 0}, Normal: mgl64.Vec3{-1, 0, 0}},
			},
			want: ErrDegenerate,
		},
		{
			name: "antiparallel contacts on the x axis",
			contacts: []contact.Contact{
				{Position: mgl64.Vec3{0.05, 0, 0}, Normal: mgl64.Vec3{-1, 0, 0}},
				{Position: mgl64.Vec3{-0.05, 0, 0}, Normal: mgl64.Vec3{1, 0, 0}},
			},
			want: ErrDegenerate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(tt.contacts, DefaultParams())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Nil(t, g)
			assert.Equal(t, 0.0, ClassicQuality(g))
			assert.False(t, g.ForceClosure())
		})
	}
}

func TestBuild_ForceClosure(t *testing.T) {
	tests := []struct {
		name     string
		contacts []contact.Contact
		params   Params
	}{
		{name: "box faces", contacts: boxGrasp(0.05), params: Params{Friction: 0.5, ConeRays: 6}},
		{name: "triangle", contacts: triangleGrasp(), params: DefaultParams()},
		{name: "box faces, eight rays", contacts: boxGrasp(0.02), params: Params{Friction: 1, ConeRays: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(tt.contacts, tt.params)
			require.NoError(t, err)
			require.NotNil(t, g)

			assert.True(t, g.ForceClosure())
			assert.Greater(t, ClassicQuality(g), 0.0)
			assert.NoError(t, CheckFacets(g, 1e-9))
			assert.Equal(t, len(tt.contacts)*tt.params.ConeRays, g.Rays)
			require.Len(t, g.FacetContacts, len(g.Facets))
			require.Len(t, g.ContactFacets, len(tt.contacts))

			for k, owners := range g.FacetContacts {
				assert.NotEmpty(t, owners, "facet %d has no contact", k)
				assert.IsIncreasing(t, append([]int{-1}, owners...))
				for _, c := range owners {
					assert.Contains(t, g.ContactFacets[c], k)
				}
			}
			for c, facets := range g.ContactFacets {
				for _, k := range facets {
					assert.Contains(t, g.FacetContacts[k], c)
				}
			}
		})
	}
}

func TestBuild_FacetsSupportRays(t *testing.T) {
	contacts := boxGrasp(0.05)
	params := Params{Friction: 0.5, ConeRays: 6}

	g, err := Build(contacts, params)
	require.NoError(t, err)

	for _, r := range Rays(contacts, params) {
		for k, f := range g.Facets {
			assert.LessOrEqual(t, f.Distance(r.Wrench()), OnFacetTolerance, "ray of contact %d beyond facet %d", r.Contact, k)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := Build(triangleGrasp(), DefaultParams())
	require.NoError(t, err)
	b, err := Build(triangleGrasp(), DefaultParams())
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Build() mismatch (-first +second):\n%s", diff)
	}
}

func TestClassicQuality_Symmetry(t *testing.T) {
	params := Params{Friction: 0.5, ConeRays: 6}

	g, err := Build(boxGrasp(0.05), params)
	require.NoError(t, err)
	q := ClassicQuality(g)

	// a half turn about z maps the box onto itself and each hexagonal cone onto itself
	pose := contact.NewPose(mgl64.Vec3{}, mgl64.QuatRotate(math.Pi, mgl64.Vec3{0, 0, 1}))
	rotated := make([]contact.Contact, 0, 6)
	for _, c := range boxGrasp(0.05) {
		rotated = append(rotated, pose.Apply(c))
	}
	g2, err := Build(rotated, params)
	require.NoError(t, err)
	assert.InDelta(t, q, ClassicQuality(g2), 1e-9)
}

func TestTaskQuality(t *testing.T) {
	g, err := Build(boxGrasp(0.05), Params{Friction: 0.5, ConeRays: 6})
	require.NoError(t, err)
	q := ClassicQuality(g)

	t.Run("nil space", func(t *testing.T) {
		m := TaskQuality(nil, wrench.Wrench{1})
		assert.Equal(t, TaskMargin{Value: 0, Binding: true}, m)
	})

	t.Run("zero task", func(t *testing.T) {
		m := TaskQuality(g, wrench.Wrench{})
		assert.False(t, m.Binding)
		assert.True(t, math.IsInf(m.Value, 1))
		assert.Equal(t, "unbounded", m.String())
	})

	t.Run("unit tasks are bounded below by the classic quality", func(t *testing.T) {
		for i := 0; i < wrench.Dim; i++ {
			for _, sign := range []float64{1, -1} {
				var task wrench.Wrench
				task[i] = sign
				m := TaskQuality(g, task)
				require.True(t, m.Binding)
				assert.GreaterOrEqual(t, m.Value, q-1e-12)
			}
		}
	})

	t.Run("scaling", func(t *testing.T) {
		task := wrench.New(mgl64.Vec3{0.3, -0.1, 0.7}, mgl64.Vec3{0.01, 0, -0.02})
		m := TaskQuality(g, task)
		m2 := TaskQuality(g, task.Scale(2))
		require.True(t, m.Binding)
		require.True(t, m2.Binding)
		assert.InDelta(t, m.Value/2, m2.Value, 1e-12)
	})
}

func TestBatteryQuality(t *testing.T) {
	g, err := Build(boxGrasp(0.05), Params{Friction: 0.5, ConeRays: 6})
	require.NoError(t, err)

	battery := wrench.RingBattery(mgl64.Vec3{0, 0, 0.05}, mgl64.Vec3{0, 0, 1}, 8, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, -1})
	require.Len(t, battery, 16)

	m := BatteryQuality(g, battery)
	require.True(t, m.Binding)
	for _, w := range battery {
		assert.LessOrEqual(t, m.Value, TaskQuality(g, w).Value)
	}

	assert.False(t, BatteryQuality(g, []wrench.Wrench{{}}).Binding)
	assert.False(t, BatteryQuality(g, nil).Binding)
	assert.Equal(t, TaskMargin{Value: 0, Binding: true}, BatteryQuality(nil, battery))
}

func TestCheckFacets(t *testing.T) {
	assert.NoError(t, CheckFacets(nil, 1e-9))

	g := &GraspWrenchSpace{
		Facets: []Facet{
			{Normal: wrench.Wrench{1}, Offset: -0.1},
			{Normal: wrench.Wrench{2}, Offset: 0.3},
		},
	}
	err := CheckFacets(g, 1e-9)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.False(t, g.ForceClosure())
	assert.Equal(t, 0.0, ClassicQuality(g))
}
