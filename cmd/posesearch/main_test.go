package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
	"go.viam.com/utils"

	"go.viam.com/posesearch/config"
	"go.viam.com/posesearch/pointcloud"
	"go.viam.com/posesearch/rimage"
)

func writeIntrinsics(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "intrinsics.json")
	err := os.WriteFile(path, []byte(`{"width_px": 64, "height_px": 48, "fx": 50, "fy": 50, "ppx": 32, "ppy": 24}`), 0o600)
	test.That(t, err, test.ShouldBeNil)
	return path
}

func TestRenderScoreAndCloud(t *testing.T) {
	dir := t.TempDir()
	intrinsics := writeIntrinsics(t, dir)
	rendered := filepath.Join(dir, "render.png")

	pixels, err := renderBox(context.Background(), intrinsics, 0.1, 0.5, rendered)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pixels, test.ShouldBeGreaterThan, 0)

	scores, err := scoreFiles(rendered, rendered, config.Default())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scores.absDiff, test.ShouldEqual, 0.)
	test.That(t, scores.matchCount, test.ShouldEqual, float64(pixels))

	empty := filepath.Join(dir, "empty.png")
	test.That(t, rimage.WriteDepthPNG(rimage.NewEmptyDepthMap(64, 48), empty), test.ShouldBeNil)
	scores, err = scoreFiles(empty, rendered, config.Default())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scores.absDiff, test.ShouldBeGreaterThan, 0)
	test.That(t, scores.matchCount, test.ShouldEqual, 0.)

	cloudPath := filepath.Join(dir, "render.pcd")
	n, err := depthToCloud(intrinsics, rendered, cloudPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, pixels)

	//nolint:gosec
	f, err := os.Open(cloudPath)
	test.That(t, err, test.ShouldBeNil)
	defer utils.UncheckedErrorFunc(f.Close)
	pc, err := pointcloud.ReadPCD(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, pixels)
}

func TestRenderBoxRejectsBadGeometry(t *testing.T) {
	dir := t.TempDir()
	intrinsics := writeIntrinsics(t, dir)
	_, err := renderBox(context.Background(), intrinsics, 0.1, 0.04, filepath.Join(dir, "x.png"))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = renderBox(context.Background(), filepath.Join(dir, "missing.json"), 0.1, 0.5, filepath.Join(dir, "x.png"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, config.Default())
}

func TestScoresTable(t *testing.T) {
	out := imageScores{absDiff: 0.5, matchCount: 12}.table()
	test.That(t, out, test.ShouldContainSubstring, "lower-is-better")
	test.That(t, out, test.ShouldContainSubstring, "higher-is-better")
	test.That(t, out, test.ShouldContainSubstring, "0.500000")
	test.That(t, out, test.ShouldContainSubstring, "12")
}
