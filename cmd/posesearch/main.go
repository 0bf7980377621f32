// Package main is the posesearch command line tool. It scores depth renders against observations
// and produces the debug artifacts of the search core from files on disk.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/posesearch/config"
	"go.viam.com/posesearch/logging"
	"go.viam.com/posesearch/pointcloud"
	"go.viam.com/posesearch/render"
	"go.viam.com/posesearch/rimage"
	"go.viam.com/posesearch/spatialmath"
	"go.viam.com/posesearch/state"
)

const (
	// Flags.
	flagConfig     = "config"
	flagDebug      = "debug"
	flagObserved   = "observed"
	flagRendered   = "rendered"
	flagIntrinsics = "intrinsics"
	flagDepth      = "depth"
	flagOut        = "out"
	flagSize       = "size"
	flagDistance   = "distance"
)

func main() {
	var logger logging.Logger

	app := &cli.App{
		Name:  "posesearch",
		Usage: "score and inspect multi-object pose hypotheses",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load search configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("posesearch")
			} else {
				logger = logging.NewLogger("posesearch")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "score",
				Usage:     "score a rendered depth PNG against an observed one under both conventions",
				UsageText: "posesearch score --observed <png> --rendered <png>",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: flagObserved, Required: true, Usage: "observed depth `PNG`"},
					&cli.PathFlag{Name: flagRendered, Required: true, Usage: "rendered depth `PNG`"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c.String(flagConfig))
					if err != nil {
						return err
					}
					scores, err := scoreFiles(c.Path(flagObserved), c.Path(flagRendered), cfg)
					if err != nil {
						return err
					}
					logger.Debugw("scored", "observed", c.Path(flagObserved), "rendered", c.Path(flagRendered))
					fmt.Fprintln(c.App.Writer, scores.table())
					return nil
				},
			},
			{
				Name:  "render-box",
				Usage: "render a box in front of the camera and write the depth PNG",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: flagIntrinsics, Required: true, Usage: "camera intrinsics `JSON`"},
					&cli.Float64Flag{Name: flagSize, Value: 0.1, Usage: "box side in meters"},
					&cli.Float64Flag{Name: flagDistance, Value: 0.5, Usage: "distance of the box center from the camera in meters"},
					&cli.PathFlag{Name: flagOut, Usage: "output `PNG`, a fresh temporary directory when unset"},
				},
				Action: func(c *cli.Context) error {
					out := c.Path(flagOut)
					if out == "" {
						dir := filepath.Join(os.TempDir(), "posesearch-"+uuid.NewString())
						if err := os.MkdirAll(dir, 0o750); err != nil {
							return err
						}
						out = filepath.Join(dir, "render.png")
					}
					pixels, err := renderBox(c.Context, c.Path(flagIntrinsics), c.Float64(flagSize), c.Float64(flagDistance), out)
					if err != nil {
						return err
					}
					logger.Infow("rendered box", "path", out, "pixels", pixels)
					fmt.Fprintln(c.App.Writer, out)
					return nil
				},
			},
			{
				Name:  "cloud",
				Usage: "back-project a depth PNG into a PCD point cloud",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: flagIntrinsics, Required: true, Usage: "camera intrinsics `JSON`"},
					&cli.PathFlag{Name: flagDepth, Required: true, Usage: "depth `PNG`"},
					&cli.PathFlag{Name: flagOut, Required: true, Usage: "output `PCD`"},
				},
				Action: func(c *cli.Context) error {
					n, err := depthToCloud(c.Path(flagIntrinsics), c.Path(flagDepth), c.Path(flagOut))
					if err != nil {
						return err
					}
					logger.Infow("wrote cloud", "path", c.Path(flagOut), "points", n)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(path string) (*config.Search, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Read(path)
}

type imageScores struct {
	absDiff    float64
	matchCount float64
}

func (s imageScores) table() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Scorer", "Convention", "Score"})
	t.AppendRow(table.Row{"abs-diff", state.LowerIsBetter, fmt.Sprintf("%.6f", s.absDiff)})
	t.AppendRow(table.Row{"match-count", state.HigherIsBetter, fmt.Sprintf("%.0f", s.matchCount)})
	return t.Render()
}

// scoreFiles scores two depth PNGs. Both are stored in meters, so the rendered image is not
// rescaled for the abs-diff scorer.
func scoreFiles(observedPath, renderedPath string, cfg *config.Search) (imageScores, error) {
	observed, err := rimage.ReadDepthPNG(observedPath)
	if err != nil {
		return imageScores{}, err
	}
	rendered, err := rimage.ReadDepthPNG(renderedPath)
	if err != nil {
		return imageScores{}, err
	}

	var scores imageScores
	if scores.absDiff, err = state.NewAbsDiffScorer(1).Score(rendered, observed); err != nil {
		return imageScores{}, err
	}
	if scores.matchCount, err = state.NewMatchCountScorer(cfg.ExplanationThreshold).Score(rendered, observed); err != nil {
		return imageScores{}, err
	}
	return scores, nil
}

func renderBox(ctx context.Context, intrinsicsPath string, size, distance float64, out string) (int, error) {
	intrinsics, err := rimage.NewIntrinsicsFromJSONFile(intrinsicsPath)
	if err != nil {
		return 0, err
	}
	if size <= 0 || distance <= size/2 {
		return 0, errors.Errorf("box of side %v at %v m is not fully in front of the camera", size, distance)
	}
	r, err := render.NewRasterRenderer(intrinsics)
	if err != nil {
		return 0, err
	}
	box := spatialmath.NewBoxMesh(r3.Vector{X: size, Y: size, Z: size}).
		Transform(spatialmath.NewPoseFromPoint(r3.Vector{Z: distance}))
	dm, err := render.NewHandle(r).Render(ctx, spatialmath.NewZeroPose(), []*spatialmath.Mesh{box})
	if err != nil {
		return 0, err
	}
	if err := rimage.WriteDepthPNG(dm, out); err != nil {
		return 0, err
	}
	return dm.NonZeroCount(), nil
}

func depthToCloud(intrinsicsPath, depthPath, out string) (int, error) {
	intrinsics, err := rimage.NewIntrinsicsFromJSONFile(intrinsicsPath)
	if err != nil {
		return 0, err
	}
	dm, err := rimage.ReadDepthPNG(depthPath)
	if err != nil {
		return 0, err
	}
	pc := intrinsics.DepthToPointCloud(dm)
	if err := pointcloud.WriteToPCDFile(pc, out); err != nil {
		return 0, err
	}
	return pc.Size(), nil
}
