// Command icr evaluates grasp scenes: wrench space quality, independent contact
// regions and self-tolerance margins of every contact.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akmonengine/icr"
	"github.com/akmonengine/icr/internal/logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "JSON analysis config; defaults are used when unset",
	}

	return &cli.App{
		Name:  "icr",
		Usage: "grasp wrench space quality and independent contact regions",
		Commands: []*cli.Command{
			{
				Name:      "evaluate",
				Usage:     "evaluate grasp scenes",
				ArgsUsage: "SCENE.json...",
				Flags: []cli.Flag{
					configFlag,
					&cli.IntFlag{
						Name:  "parallel",
						Value: 2,
						Usage: "number of scenes evaluated at once",
					},
					&cli.StringFlag{
						Name:  "log-level",
						Usage: "overrides the config log level",
					},
				},
				Action: evaluate,
			},
			{
				Name:      "check-config",
				Usage:     "validate a config file",
				ArgsUsage: "CONFIG.json",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("expected one config file", 2)
					}
					if _, err := icr.ReadConfig(c.Args().First()); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "%s: ok\n", c.Args().First())
					return nil
				},
			},
		},
	}
}

func loadConfig(path string) (icr.Config, error) {
	if path == "" {
		return icr.DefaultConfig(), nil
	}
	return icr.ReadConfig(path)
}

func evaluate(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("no scene given", 2)
	}

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	logger, err := logging.NewLogger("icr", cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	analyzer := icr.NewAnalyzer(cfg, logger)
	paths := c.Args().Slice()
	reports := make([]*icr.Report, len(paths))

	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(max(1, c.Int("parallel")))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := readScene(path)
			if err != nil {
				return err
			}
			report, err := analyzer.Analyze(s.contacts, s.battery, s.sample)
			if err != nil {
				return errors.Wrapf(err, "scene %s", path)
			}
			logger.Debug("scene done", zap.String("scene", path))
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, report := range reports {
		printReport(c.App.Writer, paths[i], report)
	}
	return nil
}

func printReport(w io.Writer, name string, r *icr.Report) {
	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "  contacts: %d\n", len(r.Contacts))
	if r.Space != nil {
		fmt.Fprintf(w, "  planes in gws: %d\n", len(r.Space.Facets))
	}
	fmt.Fprintf(w, "  force closure: %t\n", r.ForceClosure())
	fmt.Fprintf(w, "  grasp_quality_classic: %.6g     grasp_quality: %s\n", r.Classic, r.Task)

	if r.Regions == nil {
		return
	}
	fmt.Fprintf(w, "  total surface points in ICR: %d\n", len(r.Regions.Covered()))
	for c, size := range r.Regions.Sizes() {
		fmt.Fprintf(w, "  contact %d   points in ICR: %d", c, size)
		if c < len(r.Margins) {
			m := r.Margins[c]
			if m.Bounded {
				fmt.Fprintf(w, "   margin: %.4g at point %d", m.Distance, m.PointID)
			} else {
				fmt.Fprintf(w, "   margin: unbounded at point %d", m.PointID)
			}
		}
		if c < len(r.Patches) {
			fmt.Fprintf(w, "   patch: %d points", len(r.Patches[c]))
		}
		fmt.Fprintln(w)
	}
}
