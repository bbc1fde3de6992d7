package main

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/akmonengine/icr"
	"github.com/akmonengine/icr/contact"
	"github.com/akmonengine/icr/internal/logging"
	"github.com/akmonengine/icr/surface"
	"github.com/akmonengine/icr/wrench"
)

const (
	handleRadius = 0.012
	handleHeight = 0.03
	around       = 48
	rows         = 16
)

// SetupHandle samples the side of a key handle, a cylinder along z, with normals
// pointing inwards as a finger would push. Points with x > 0 face the key blade and
// may not be touched.
func SetupHandle() []surface.Point {
	pitch := handleHeight / float64(rows-1)
	id := func(r, a int) int { return r*around + (a+around)%around }

	points := make([]surface.Point, 0, around*rows)
	for r := 0; r < rows; r++ {
		for a := 0; a < around; a++ {
			theta := 2 * math.Pi * float64(a) / around
			out := mgl64.Vec3{math.Cos(theta), math.Sin(theta), 0}
			pos := out.Mul(handleRadius).Add(mgl64.Vec3{0, 0, float64(r)*pitch - handleHeight/2})

			nbrs := []int{id(r, a-1), id(r, a+1)}
			if r > 0 {
				nbrs = append(nbrs, id(r-1, a))
			}
			if r < rows-1 {
				nbrs = append(nbrs, id(r+1, a))
			}

			points = append(points, surface.Point{
				ID:        id(r, a),
				Position:  pos,
				Normal:    out.Mul(-1),
				Neighbors: nbrs,
				Allowed:   pos.X() <= 0,
			})
		}
	}
	return points
}

// SetupFingers returns the raw contacts of a three finger grasp around the handle,
// with the jittered duplicates a simulator reports for the same touch.
func SetupFingers(objectPose contact.Transform) []contact.Contact {
	var raw []contact.Contact
	for _, deg := range []float64{60, 180, 300} {
		theta := mgl64.DegToRad(deg)
		out := mgl64.Vec3{math.Cos(theta), math.Sin(theta), 0}
		c := contact.Contact{Position: out.Mul(handleRadius), Normal: out.Mul(-1)}
		raw = append(raw, objectPose.Apply(c))

		jitter := contact.Contact{Position: c.Position.Add(mgl64.Vec3{0, 0, 0.001}), Normal: c.Normal}
		raw = append(raw, objectPose.Apply(jitter))
	}
	return raw
}

func main() {
	logger, err := logging.NewLogger("keyGrasp", "debug")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	objectPose := contact.NewPose(mgl64.Vec3{0.4, 0.1, 0.9}, mgl64.QuatRotate(math.Pi/6, mgl64.Vec3{0, 1, 0}))
	raw := contact.ToObjectFrame(SetupFingers(objectPose), objectPose)

	// disturbances a key meets in a lock: pushes and twists at the blade tip
	tip := mgl64.Vec3{0.05, 0, 0}
	battery := wrench.RingBattery(tip, mgl64.Vec3{1, 0, 0}, 8, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{-1, 0, 0})

	sample, err := surface.NewSample(SetupHandle())
	if err != nil {
		logger.Fatal("invalid surface", zap.Error(err))
	}

	cfg := icr.DefaultConfig()
	cfg.Workers = 4
	analyzer := icr.NewAnalyzer(cfg, logger)

	report, err := analyzer.Analyze(raw, battery, sample)
	if err != nil {
		logger.Fatal("analysis failed", zap.Error(err))
	}

	fmt.Printf("raw contacts: %d, reduced: %d\n", len(raw), len(report.Contacts))
	fmt.Printf("grasp_quality_classic: %.6g     grasp_quality: %s\n", report.Classic, report.Task)
	fmt.Printf("surface points: %d, in ICR: %d\n", sample.Len(), len(report.Regions.Covered()))
	for c, size := range report.Regions.Sizes() {
		m := report.Margins[c]
		fmt.Printf("contact %d   points in ICR: %d   patch: %d   margin: %.4g (bounded %t)\n",
			c, size, len(report.Patches[c]), m.Distance, m.Bounded)
	}
}
