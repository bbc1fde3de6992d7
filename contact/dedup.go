package contact

import (
	"fmt"
	"math"

	"github.com/akmonengine/icr/spatial"
)

const (
	// DefaultMaxPositionDistance is the largest distance, in meters, between two
	// contacts considered the same physical contact.
	DefaultMaxPositionDistance = 0.003

	// DefaultMaxAngleDegrees is the largest angle between the normals of two contacts
	// considered the same physical contact.
	DefaultMaxAngleDegrees = 15.0
)

// DedupPolicy selects how near-duplicate contacts are grouped.
type DedupPolicy string

const (
	// DedupGreedy absorbs every later contact close to an earlier representative. The
	// result depends on input order.
	DedupGreedy DedupPolicy = "greedy"
	// DedupTransitive merges the connected components of the closeness graph.
	DedupTransitive DedupPolicy = "transitive"
)

// DedupOptions are the closeness thresholds. Two contacts are close when both the
// position distance and the normal chord distance are strictly below their limits.
type DedupOptions struct {
	Policy              DedupPolicy
	MaxPositionDistance float64
	MaxAngleDegrees     float64
}

// DefaultDedupOptions returns the greedy policy with 3 mm and 15 degree thresholds.
func DefaultDedupOptions() DedupOptions {
	return DedupOptions{
		Policy:              DedupGreedy,
		MaxPositionDistance: DefaultMaxPositionDistance,
		MaxAngleDegrees:     DefaultMaxAngleDegrees,
	}
}

// MaxNormalDistance converts the angle threshold to the chord length between unit normals.
func (o DedupOptions) MaxNormalDistance() float64 {
	return 2 * math.Sin(o.MaxAngleDegrees*math.Pi/180/2)
}

func (o DedupOptions) close(a, b Contact, maxNormalDist float64) bool {
	return a.Position.Sub(b.Position).Len() < o.MaxPositionDistance &&
		a.Normal.Sub(b.Normal).Len() < maxNormalDist
}

// Reduce applies the policy selected in opts.
func Reduce(contacts []Contact, opts DedupOptions) ([]Contact, error) {
	switch opts.Policy {
	case DedupGreedy, "":
		return Deduplicate(contacts, opts), nil
	case DedupTransitive:
		return DeduplicateTransitive(contacts, opts), nil
	default:
		return nil, fmt.Errorf("contact: unknown dedup policy %q", opts.Policy)
	}
}

// Deduplicate merges near-duplicate contacts in a single left-to-right pass. Each
// contact not yet absorbed becomes a representative and absorbs every later contact
// close to it. The output keeps first-occurrence order and is never longer than the input.
func Deduplicate(contacts []Contact, opts DedupOptions) []Contact {
	maxNormalDist := opts.MaxNormalDistance()
	absorbed := make([]bool, len(contacts))
	reduced := make([]Contact, 0, len(contacts))

	for i, c1 := range contacts {
		if absorbed[i] {
			continue
		}
		absorbed[i] = true
		reduced = append(reduced, c1)

		for j := i + 1; j < len(contacts); j++ {
			if absorbed[j] {
				continue
			}
			if opts.close(c1, contacts[j], maxNormalDist) {
				absorbed[j] = true
			}
		}
	}

	return reduced
}

// DeduplicateTransitive merges every connected component of the closeness graph and
// keeps the first contact of each component, in input order. The set of components does
// not depend on input order.
func DeduplicateTransitive(contacts []Contact, opts DedupOptions) []Contact {
	maxNormalDist := opts.MaxNormalDistance()

	grid := spatial.NewGrid(max(opts.MaxPositionDistance, 1e-9), len(contacts))
	for i, c := range contacts {
		grid.Insert(i, c.Position)
	}
	grid.SortCells()

	sets := newDisjointSet(len(contacts))
	for i, c := range contacts {
		for _, j := range grid.Within(c.Position, opts.MaxPositionDistance) {
			if j <= i {
				continue
			}
			if opts.close(c, contacts[j], maxNormalDist) {
				sets.union(i, j)
			}
		}
	}

	seen := make(map[int]struct{}, len(contacts))
	reduced := make([]Contact, 0, len(contacts))
	for i, c := range contacts {
		root := sets.find(i)
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		reduced = append(reduced, c)
	}

	return reduced
}

// disjointSet is a union-find forest with path halving and union by size.
type disjointSet struct {
	parent []int
	size   []int
}

func newDisjointSet(n int) *disjointSet {
	s := &disjointSet{parent: make([]int, n), size: make([]int, n)}
	for i := range s.parent {
		s.parent[i] = i
		s.size[i] = 1
	}
	return s
}

func (s *disjointSet) find(i int) int {
	for s.parent[i] != i {
		s.parent[i] = s.parent[s.parent[i]]
		i = s.parent[i]
	}
	return i
}

func (s *disjointSet) union(a, b int) {
	ra, rb := s.find(a), s.find(b)
	if ra == rb {
		return
	}
	if s.size[ra] < s.size[rb] {
		ra, rb = rb, ra
	}
	s.parent[rb] = ra
	s.size[ra] += s.size[rb]
}
