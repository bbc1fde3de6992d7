// Package icr evaluates multi-finger grasps: it reduces raw contacts, builds their
// grasp wrench space, scores it and grows the independent contact regions of every
// contact over a sampled object surface.
package icr

import (
	stderrors "errors"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/akmonengine/icr/contact"
	"github.com/akmonengine/icr/gws"
	"github.com/akmonengine/icr/surface"
	"github.com/akmonengine/icr/wrench"
)

// Analyzer runs the analysis pipeline with a fixed configuration. It holds no per-grasp
// state and may evaluate several grasps concurrently, as long as each uses its own
// surface sample.
type Analyzer struct {
	Config Config
	Logger *zap.Logger
}

// NewAnalyzer returns an analyzer logging to logger, or discarding logs when nil.
func NewAnalyzer(cfg Config, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{Config: cfg, Logger: logger}
}

// Evaluation is the wrench space analysis of one grasp.
type Evaluation struct {
	// Contacts are the deduplicated contacts, in the order the space was built from.
	Contacts []contact.Contact
	// Space is nil when the contacts do not span the wrench space.
	Space *gws.GraspWrenchSpace

	Classic float64
	// Task is the battery quality; a nil space scores a binding 0.
	Task gws.TaskMargin
}

// ForceClosure reports whether the grasp resists every wrench.
func (e *Evaluation) ForceClosure() bool {
	return e.Space.ForceClosure()
}

// ContactMargin is the self-tolerance margin of one contact, measured at the surface
// point nearest to it.
type ContactMargin struct {
	PointID  int
	Distance float64
	// Bounded is false when no dissimilar point borders the contact's patch.
	Bounded bool
}

// Report gathers every result of Analyze.
type Report struct {
	*Evaluation
	Regions surface.ContactRegions
	Margins []ContactMargin
	Patches [][]int
}

// Evaluate deduplicates raw contacts, builds their wrench space and scores it against
// the battery. A degenerate wrench space is not an error: the evaluation then has a
// nil space and zero qualities.
func (a *Analyzer) Evaluate(raw []contact.Contact, battery []wrench.Wrench) (*Evaluation, error) {
	contacts, err := contact.Reduce(raw, a.Config.DedupOptions())
	if err != nil {
		return nil, errors.Wrap(err, "deduplicating contacts")
	}
	ev := &Evaluation{Contacts: contacts}

	space, err := gws.Build(contacts, a.Config.Params())
	switch {
	case err == nil:
	case stderrors.Is(err, gws.ErrDegenerate), stderrors.Is(err, gws.ErrNoContacts):
		a.Logger.Debug("wrench space unavailable", zap.Int("contacts", len(contacts)), zap.Error(err))
	default:
		return nil, err
	}

	ev.Space = space
	ev.Classic = gws.ClassicQuality(space)
	ev.Task = gws.BatteryQuality(space, battery)

	a.Logger.Info("grasp evaluated",
		zap.Int("raw_contacts", len(raw)),
		zap.Int("contacts", len(contacts)),
		zap.Int("facets", len(facetsOf(space))),
		zap.Bool("force_closure", ev.ForceClosure()),
		zap.Float64("classic_quality", ev.Classic),
		zap.Stringer("task_quality", ev.Task),
	)
	return ev, nil
}

func facetsOf(space *gws.GraspWrenchSpace) []gws.Facet {
	if space == nil {
		return nil
	}
	return space.Facets
}

// Regions grows the independent contact region of every evaluated contact.
func (a *Analyzer) Regions(ev *Evaluation, sample *surface.Sample) (surface.ContactRegions, error) {
	regions, err := sample.CoverageRegions(ev.Space, ev.Contacts, a.Config.CoverageOptions())
	if err != nil {
		return nil, err
	}

	if ce := a.Logger.Check(zap.DebugLevel, "contact regions"); ce != nil {
		ce.Write(
			zap.Int("surface_points", sample.Len()),
			zap.Int("covered", len(regions.Covered())),
			zap.Ints("sizes", regions.Sizes()),
		)
	}
	return regions, nil
}

// Margins returns the self-tolerance margin of every evaluated contact.
func (a *Analyzer) Margins(ev *Evaluation, sample *surface.Sample) ([]ContactMargin, error) {
	ids, err := sample.NearestContactPoints(ev.Contacts)
	if err != nil {
		return nil, err
	}

	margins := make([]ContactMargin, len(ids))
	for c, id := range ids {
		d, ok, err := sample.Margin(id, a.Config.Margin)
		if err != nil {
			return nil, err
		}
		margins[c] = ContactMargin{PointID: id, Distance: d, Bounded: ok}
	}
	return margins, nil
}

// Patches returns the self-similarity patch around the surface point nearest to every
// evaluated contact.
func (a *Analyzer) Patches(ev *Evaluation, sample *surface.Sample) ([][]int, error) {
	ids, err := sample.NearestContactPoints(ev.Contacts)
	if err != nil {
		return nil, err
	}

	patches := make([][]int, len(ids))
	for c, id := range ids {
		patches[c], err = sample.Patch(id, a.Config.Patch)
		if err != nil {
			return nil, err
		}
	}
	return patches, nil
}

// Analyze runs the whole pipeline on one grasp. sample may be nil, in which case only
// the evaluation is filled.
func (a *Analyzer) Analyze(raw []contact.Contact, battery []wrench.Wrench, sample *surface.Sample) (*Report, error) {
	// Phase 1: contact reduction, wrench space and quality
	ev, err := a.Evaluate(raw, battery)
	if err != nil {
		return nil, err
	}
	report := &Report{Evaluation: ev}
	if sample == nil {
		return report, nil
	}

	// Phase 2: regions against the wrench space
	if report.Regions, err = a.Regions(ev, sample); err != nil {
		return nil, errors.Wrap(err, "contact regions")
	}

	// Phase 3: local surface neighborhoods of every contact
	if report.Margins, err = a.Margins(ev, sample); err != nil {
		return nil, errors.Wrap(err, "margins")
	}
	if report.Patches, err = a.Patches(ev, sample); err != nil {
		return nil, errors.Wrap(err, "patches")
	}

	return report, nil
}
