package render

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/posesearch/rimage"
	"go.viam.com/posesearch/spatialmath"
)

// NearClip is the closest distance to the camera at which geometry is drawn. Triangles with any
// vertex nearer are skipped.
const NearClip = 0.01

// rasterRenderer is a z-buffered triangle rasterizer over a pinhole camera.
type rasterRenderer struct {
	intrinsics *rimage.Intrinsics
	meshes     []*spatialmath.Mesh
}

// NewRasterRenderer returns a software Renderer for a camera with the given intrinsics.
func NewRasterRenderer(intrinsics *rimage.Intrinsics) (Renderer, error) {
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	return &rasterRenderer{intrinsics: intrinsics}, nil
}

func (r *rasterRenderer) ClearScene() {
	r.meshes = nil
}

func (r *rasterRenderer) AddObject(worldMesh *spatialmath.Mesh) {
	r.meshes = append(r.meshes, worldMesh)
}

func (r *rasterRenderer) RenderDepth(cameraPose spatialmath.Pose) (*rimage.DepthMap, error) {
	if cameraPose == nil {
		return nil, errors.New("camera pose is required to render")
	}
	dm := rimage.NewEmptyDepthMap(r.intrinsics.Width, r.intrinsics.Height)
	worldToCamera := spatialmath.PoseInverse(cameraPose)
	for _, m := range r.meshes {
		inCamera := m.Transform(worldToCamera)
		for _, tri := range inCamera.WorldTriangles() {
			r.drawTriangle(dm, tri.Points())
		}
	}
	return dm, nil
}

type screenVertex struct {
	u, v float64
	invZ float64
}

func edge(a, b screenVertex, u, v float64) float64 {
	return (u-a.u)*(b.v-a.v) - (v-a.v)*(b.u-a.u)
}

func (r *rasterRenderer) drawTriangle(dm *rimage.DepthMap, pts []r3.Vector) {
	var sv [3]screenVertex
	for i, p := range pts {
		if p.Z < NearClip {
			return
		}
		u, v, ok := r.intrinsics.PointToPixel(p)
		if !ok {
			return
		}
		sv[i] = screenVertex{u: u, v: v, invZ: 1 / p.Z}
	}
	area := edge(sv[0], sv[1], sv[2].u, sv[2].v)
	if area == 0 {
		return
	}

	minX := int(math.Max(0, math.Floor(math.Min(sv[0].u, math.Min(sv[1].u, sv[2].u)))))
	maxX := int(math.Min(float64(dm.Width()-1), math.Ceil(math.Max(sv[0].u, math.Max(sv[1].u, sv[2].u)))))
	minY := int(math.Max(0, math.Floor(math.Min(sv[0].v, math.Min(sv[1].v, sv[2].v)))))
	maxY := int(math.Min(float64(dm.Height()-1), math.Ceil(math.Max(sv[0].v, math.Max(sv[1].v, sv[2].v)))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			// sample at the pixel center
			u, v := float64(x)+0.5, float64(y)+0.5
			w0 := edge(sv[1], sv[2], u, v) / area
			w1 := edge(sv[2], sv[0], u, v) / area
			w2 := edge(sv[0], sv[1], u, v) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			// 1/z is affine in screen space
			z := float32(1 / (w0*sv[0].invZ + w1*sv[1].invZ + w2*sv[2].invZ))
			cur := dm.GetDepth(x, y)
			if cur == 0 || z < cur {
				dm.Set(x, y, z)
			}
		}
	}
}
