package gws

import (
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/akmonengine/icr/wrench"
)

// ClassicQuality is the radius of the largest origin-centred ball inside the grasp
// wrench space: the smallest distance from the origin to any facet. It is 0 for a nil
// space and for a space that does not contain the origin strictly.
func ClassicQuality(g *GraspWrenchSpace) float64 {
	if !g.ForceClosure() {
		return 0
	}

	q := math.Inf(1)
	for _, f := range g.Facets {
		q = math.Min(q, -f.Offset)
	}
	return q
}

// TaskMargin is the largest scaling of a task wrench the grasp can resist.
// Binding is false when no facet bounds the task direction; Value is then +Inf.
type TaskMargin struct {
	Value   float64
	Binding bool
}

func (m TaskMargin) String() string {
	if !m.Binding {
		return "unbounded"
	}
	return fmt.Sprintf("%.6g", m.Value)
}

// TaskQuality returns, over the facets the task wrench points towards, the smallest
// -Offset/(Normal·task). A nil space yields a binding margin of 0.
func TaskQuality(g *GraspWrenchSpace, task wrench.Wrench) TaskMargin {
	if g == nil {
		return TaskMargin{Value: 0, Binding: true}
	}

	m := TaskMargin{Value: math.Inf(1)}
	for _, f := range g.Facets {
		d := f.Normal.Dot(task)
		if d <= 0 {
			continue
		}
		if v := -f.Offset / d; v < m.Value || !m.Binding {
			m = TaskMargin{Value: v, Binding: true}
		}
	}
	return m
}

// BatteryQuality is the smallest TaskQuality over a battery of task wrenches.
// Non-binding task wrenches do not limit the result.
func BatteryQuality(g *GraspWrenchSpace, battery []wrench.Wrench) TaskMargin {
	if g == nil {
		return TaskMargin{Value: 0, Binding: true}
	}

	m := TaskMargin{Value: math.Inf(1)}
	for _, task := range battery {
		tm := TaskQuality(g, task)
		if !tm.Binding {
			continue
		}
		if tm.Value < m.Value || !m.Binding {
			m = tm
		}
	}
	return m
}

// CheckFacets reports every facet whose normal is not of unit length within tol or
// whose offset is positive. It returns nil for a nil space.
func CheckFacets(g *GraspWrenchSpace, tol float64) error {
	if g == nil {
		return nil
	}

	var err error
	for k, f := range g.Facets {
		if n := f.Normal.Norm(); math.Abs(n-1) > tol {
			err = multierr.Append(err, fmt.Errorf("facet %d: normal length %g", k, n))
		}
		if f.Offset > tol {
			err = multierr.Append(err, fmt.Errorf("facet %d: offset %g does not enclose the origin", k, f.Offset))
		}
	}
	return err
}
