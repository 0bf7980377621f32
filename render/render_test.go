package render

import (
	"context"
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/posesearch/rimage"
	"go.viam.com/posesearch/spatialmath"
)

func testRenderer(t *testing.T) Renderer {
	t.Helper()
	r, err := NewRasterRenderer(&rimage.Intrinsics{Width: 64, Height: 48, Fx: 50, Fy: 50, Ppx: 32, Ppy: 24})
	test.That(t, err, test.ShouldBeNil)
	return r
}

func boxAt(p r3.Vector, size float64) *spatialmath.Mesh {
	return spatialmath.NewBoxMesh(r3.Vector{X: size, Y: size, Z: size}).Transform(spatialmath.NewPoseFromPoint(p))
}

func TestNewRasterRendererInvalid(t *testing.T) {
	_, err := NewRasterRenderer(&rimage.Intrinsics{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRenderEmptyScene(t *testing.T) {
	r := testRenderer(t)
	dm, err := r.RenderDepth(spatialmath.NewZeroPose())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.Width(), test.ShouldEqual, 64)
	test.That(t, dm.Height(), test.ShouldEqual, 48)
	test.That(t, dm.NonZeroCount(), test.ShouldEqual, 0)

	_, err = r.RenderDepth(nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRenderBoxFrontFace(t *testing.T) {
	r := testRenderer(t)
	r.AddObject(boxAt(r3.Vector{Z: 0.5}, 0.1))
	dm, err := r.RenderDepth(spatialmath.NewZeroPose())
	test.That(t, err, test.ShouldBeNil)

	test.That(t, dm.GetDepth(32, 24), test.ShouldAlmostEqual, 0.45, 1e-5)
	test.That(t, dm.GetDepth(0, 0), test.ShouldEqual, float32(0))
	test.That(t, dm.GetDepth(63, 47), test.ShouldEqual, float32(0))
	// the front face spans about 11 pixels a side
	test.That(t, dm.NonZeroCount(), test.ShouldBeBetween, 100, 150)

	r.ClearScene()
	dm, err = r.RenderDepth(spatialmath.NewZeroPose())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.NonZeroCount(), test.ShouldEqual, 0)
}

func TestRenderKeepsNearest(t *testing.T) {
	r := testRenderer(t)
	r.AddObject(boxAt(r3.Vector{Z: 0.8}, 0.2))
	r.AddObject(boxAt(r3.Vector{Z: 0.4}, 0.02))
	dm, err := r.RenderDepth(spatialmath.NewZeroPose())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.GetDepth(32, 24), test.ShouldAlmostEqual, 0.39, 1e-5)
	test.That(t, dm.GetDepth(38, 24), test.ShouldAlmostEqual, 0.7, 1e-5)
}

func TestRenderCameraPose(t *testing.T) {
	r := testRenderer(t)
	r.AddObject(boxAt(r3.Vector{}, 0.1))
	dm, err := r.RenderDepth(spatialmath.NewPoseFromPoint(r3.Vector{Z: -0.5}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.GetDepth(32, 24), test.ShouldAlmostEqual, 0.45, 1e-5)

	// behind the camera
	dm, err = r.RenderDepth(spatialmath.NewPoseFromPoint(r3.Vector{Z: 0.5}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.NonZeroCount(), test.ShouldEqual, 0)
}

func TestHandle(t *testing.T) {
	h := NewHandle(testRenderer(t))
	meshes := []*spatialmath.Mesh{boxAt(r3.Vector{Z: 0.5}, 0.1)}

	want, err := h.Render(context.Background(), spatialmath.NewZeroPose(), meshes)
	test.That(t, err, test.ShouldBeNil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := h.Render(context.Background(), spatialmath.NewZeroPose(), meshes)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, got, test.ShouldResemble, want)
		}()
	}
	wg.Wait()

	_, err = h.Render(context.Background(), spatialmath.NewZeroPose(), []*spatialmath.Mesh{nil})
	test.That(t, err, test.ShouldNotBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Render(ctx, spatialmath.NewZeroPose(), meshes)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}
