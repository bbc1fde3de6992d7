package icr

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/akmonengine/icr/contact"
	"github.com/akmonengine/icr/gws"
	"github.com/akmonengine/icr/surface"
	"github.com/akmonengine/icr/wrench"
)

// DEFAULT_WORKERS is the worker count used when none is configured.
const DEFAULT_WORKERS = 1

// DedupConfig configures the reduction of near-duplicate contacts.
type DedupConfig struct {
	Policy              contact.DedupPolicy `json:"policy"`
	MaxPositionDistance float64             `json:"max_position_distance"`
	MaxAngleDegrees     float64             `json:"max_angle_degrees"`
}

// Config holds every tunable of a grasp analysis.
type Config struct {
	Friction      float64 `json:"friction"`
	ConeRays      int     `json:"cone_rays"`
	QualityMargin float64 `json:"quality_margin"`

	Dedup DedupConfig `json:"dedup"`

	Patch  surface.Tolerance `json:"patch"`
	Margin surface.Tolerance `json:"margin"`

	// MaxNormalAngleDegrees skips surface points misaligned with a contact during
	// region growing. Zero disables the filter.
	MaxNormalAngleDegrees float64 `json:"max_normal_angle_degrees"`

	Workers  int    `json:"workers"`
	LogLevel string `json:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Friction:      gws.DefaultFriction,
		ConeRays:      wrench.DefaultConeRays,
		QualityMargin: surface.DefaultQualityMargin,
		Dedup: DedupConfig{
			Policy:              contact.DedupGreedy,
			MaxPositionDistance: contact.DefaultMaxPositionDistance,
			MaxAngleDegrees:     contact.DefaultMaxAngleDegrees,
		},
		Patch:    surface.DefaultPatchTolerance(),
		Margin:   surface.DefaultMarginTolerance(),
		Workers:  DEFAULT_WORKERS,
		LogLevel: "info",
	}
}

// ReadConfig reads a JSON config file, expanding environment variables first. Fields
// missing from the file keep their DefaultConfig value.
func ReadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := json.Unmarshal(buf, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "decoding config %s", path)
	}
	if err := cfg.Validate(path); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every invalid field, prefixed with path.
func (c Config) Validate(path string) error {
	var err error
	field := func(name string) string {
		if path == "" {
			return name
		}
		return fmt.Sprintf("%s: %s", path, name)
	}
	check := func(ok bool, name, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, errors.Errorf("%s "+format, append([]any{field(name)}, args...)...))
		}
	}

	check(c.Friction > 0 && !math.IsInf(c.Friction, 0), "friction", "must be positive, got %g", c.Friction)
	check(c.ConeRays >= 3, "cone_rays", "must be at least 3, got %d", c.ConeRays)
	check(c.QualityMargin >= 0, "quality_margin", "must not be negative, got %g", c.QualityMargin)
	check(c.Dedup.Policy == "" || c.Dedup.Policy == contact.DedupGreedy || c.Dedup.Policy == contact.DedupTransitive,
		"dedup.policy", "unknown policy %q", c.Dedup.Policy)
	check(c.Dedup.MaxPositionDistance >= 0, "dedup.max_position_distance", "must not be negative, got %g", c.Dedup.MaxPositionDistance)
	check(c.Dedup.MaxAngleDegrees >= 0 && c.Dedup.MaxAngleDegrees <= 180, "dedup.max_angle_degrees", "must lie in [0, 180], got %g", c.Dedup.MaxAngleDegrees)
	check(c.Patch.MaxForceDist >= 0 && c.Patch.MaxTorqueDist >= 0, "patch", "tolerances must not be negative")
	check(c.Margin.MaxForceDist >= 0 && c.Margin.MaxTorqueDist >= 0, "margin", "tolerances must not be negative")
	check(c.MaxNormalAngleDegrees >= 0 && c.MaxNormalAngleDegrees <= 180, "max_normal_angle_degrees", "must lie in [0, 180], got %g", c.MaxNormalAngleDegrees)
	check(c.Workers >= 0, "workers", "must not be negative, got %d", c.Workers)

	return err
}

// Params returns the friction cone parameters of the wrench space.
func (c Config) Params() gws.Params {
	return gws.Params{Friction: c.Friction, ConeRays: c.ConeRays}
}

func (c Config) DedupOptions() contact.DedupOptions {
	return contact.DedupOptions{
		Policy:              c.Dedup.Policy,
		MaxPositionDistance: c.Dedup.MaxPositionDistance,
		MaxAngleDegrees:     c.Dedup.MaxAngleDegrees,
	}
}

func (c Config) CoverageOptions() surface.CoverageOptions {
	return surface.CoverageOptions{
		QualityMargin:  c.QualityMargin,
		MaxNormalAngle: c.MaxNormalAngleDegrees * math.Pi / 180,
		Workers:        max(DEFAULT_WORKERS, c.Workers),
	}
}
