package rimage

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/posesearch/pointcloud"
)

func TestDepthMapBasic(t *testing.T) {
	dm := NewEmptyDepthMap(4, 3)
	test.That(t, dm.Width(), test.ShouldEqual, 4)
	test.That(t, dm.Height(), test.ShouldEqual, 3)
	test.That(t, dm.NonZeroCount(), test.ShouldEqual, 0)

	dm.Set(3, 2, 0.5)
	test.That(t, dm.GetDepth(3, 2), test.ShouldEqual, float32(0.5))
	test.That(t, dm.Contains(3, 2), test.ShouldBeTrue)
	test.That(t, dm.Contains(4, 2), test.ShouldBeFalse)

	clone := dm.Clone()
	clone.Set(0, 0, 1)
	test.That(t, dm.GetDepth(0, 0), test.ShouldEqual, float32(0))

	clone.Scale(2)
	test.That(t, clone.GetDepth(3, 2), test.ShouldEqual, float32(1))
	lo, hi := clone.MinMax()
	test.That(t, lo, test.ShouldEqual, float32(1))
	test.That(t, hi, test.ShouldEqual, float32(2))

	_, err := NewDepthMapFromData(2, 2, []float32{1})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCompositeNearest(t *testing.T) {
	base := NewEmptyDepthMap(3, 1)
	base.Set(0, 0, 0.5)
	base.Set(1, 0, 0.5)

	other := NewEmptyDepthMap(3, 1)
	other.Set(0, 0, 0.7)
	other.Set(1, 0, 0.3)
	other.Set(2, 0, 0.9)

	test.That(t, base.CompositeNearest(other), test.ShouldBeNil)
	test.That(t, base.GetDepth(0, 0), test.ShouldEqual, float32(0.5))
	test.That(t, base.GetDepth(1, 0), test.ShouldEqual, float32(0.3))
	test.That(t, base.GetDepth(2, 0), test.ShouldEqual, float32(0.9))

	test.That(t, base.CompositeNearest(NewEmptyDepthMap(2, 2)), test.ShouldNotBeNil)
}

func TestDepthValueCodec(t *testing.T) {
	test.That(t, EncodeDepthValue(0), test.ShouldEqual, uint16(0))
	// 0.5m is 5000 units, rotated left by 3 bits
	test.That(t, EncodeDepthValue(0.5), test.ShouldEqual, uint16(5000<<3))
	test.That(t, DecodeDepthValue(uint16(5000<<3)), test.ShouldEqual, float32(0.5))
	// high bits wrap around to the bottom
	test.That(t, EncodeDepthValue(6.0), test.ShouldEqual, uint16(60000>>13|(60000<<3)&0xffff))
	test.That(t, DecodeDepthValue(EncodeDepthValue(6.0)), test.ShouldEqual, float32(6.0))
	test.That(t, EncodeDepthValue(100), test.ShouldEqual, uint16(0xffff))
}

func TestDepthValueCodecSaturates(t *testing.T) {
	maxDepth := float32(math.MaxUint16) / DepthUnitsPerMeter
	for _, depth := range []float32{6.6, 7, 10, float32(math.Inf(1))} {
		test.That(t, DecodeDepthValue(EncodeDepthValue(depth)), test.ShouldEqual, maxDepth)
	}
	for _, depth := range []float32{-0.1, -7, float32(math.Inf(-1)), float32(math.NaN())} {
		test.That(t, EncodeDepthValue(depth), test.ShouldEqual, uint16(0))
	}
	test.That(t, DecodeDepthValue(EncodeDepthValue(6.5)), test.ShouldAlmostEqual, 6.5, 1e-4)

	// a saturated background stays outside the back-projection range
	dm := NewEmptyDepthMap(2, 1)
	dm.Set(0, 0, 7)
	dm.Set(1, 0, 0.5)
	var buf bytes.Buffer
	test.That(t, EncodeDepth(dm, &buf), test.ShouldBeNil)
	read, err := DecodeDepth(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.GetDepth(0, 0), test.ShouldEqual, maxDepth)
	test.That(t, read.GetDepth(1, 0), test.ShouldAlmostEqual, 0.5, 1e-4)
}

func TestDepthPNGRoundTrip(t *testing.T) {
	dm := NewEmptyDepthMap(5, 4)
	dm.Set(1, 1, 0.25)
	dm.Set(4, 3, 0.8125)
	dm.Set(2, 0, 3.25)

	var buf bytes.Buffer
	test.That(t, EncodeDepth(dm, &buf), test.ShouldBeNil)
	read, err := DecodeDepth(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.SameSize(dm), test.ShouldBeTrue)
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			test.That(t, read.GetDepth(x, y), test.ShouldAlmostEqual, dm.GetDepth(x, y), 1e-4)
		}
	}

	path := filepath.Join(t.TempDir(), "depth.png")
	test.That(t, WriteDepthPNG(dm, path), test.ShouldBeNil)
	fromFile, err := ReadDepthPNG(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fromFile.GetDepth(1, 1), test.ShouldAlmostEqual, 0.25, 1e-4)

	_, err = ReadDepthPNG(filepath.Join(t.TempDir(), "missing.png"))
	test.That(t, err, test.ShouldNotBeNil)
}

func testIntrinsics() *Intrinsics {
	return &Intrinsics{Width: 64, Height: 48, Fx: 50, Fy: 50, Ppx: 32, Ppy: 24}
}

func TestIntrinsicsValid(t *testing.T) {
	test.That(t, testIntrinsics().CheckValid(), test.ShouldBeNil)
	var missing *Intrinsics
	test.That(t, missing.CheckValid(), test.ShouldBeError)
	bad := testIntrinsics()
	bad.Fx = 0
	test.That(t, bad.CheckValid(), test.ShouldNotBeNil)
}

func TestDepthToPointCloud(t *testing.T) {
	params := testIntrinsics()
	dm := NewEmptyDepthMap(params.Width, params.Height)
	dm.Set(32, 24, 0.5)
	dm.Set(42, 24, 0.5)
	// out of the valid range
	dm.Set(0, 0, 0.05)
	dm.Set(1, 0, 1.0)

	pc := params.DepthToPointCloud(dm)
	test.That(t, pc.Size(), test.ShouldEqual, 2)
	test.That(t, pc.At(0), test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 0.5})
	test.That(t, pc.At(1).X, test.ShouldAlmostEqual, 0.1)
}

func TestProjectPointCloudKeepsNearest(t *testing.T) {
	params := testIntrinsics()
	dm := NewEmptyDepthMap(params.Width, params.Height)
	pc := pointcloud.NewFromPoints([]r3.Vector{
		{X: 0.25, Y: 0, Z: 0.5},
		{X: 0.125, Y: 0, Z: 0.25},
		// behind the camera
		{X: 0, Y: 0, Z: -1},
		// outside the image
		{X: 5, Y: 0, Z: 0.5},
	})
	params.ProjectPointCloud(pc, dm)
	test.That(t, dm.NonZeroCount(), test.ShouldEqual, 1)
	test.That(t, dm.GetDepth(57, 24), test.ShouldEqual, float32(0.25))

	// round trip through back-projection lands on the same pixel
	back := params.DepthToPointCloud(dm)
	test.That(t, back.Size(), test.ShouldEqual, 1)
	test.That(t, back.At(0).X, test.ShouldAlmostEqual, 0.125, 1e-9)
}
