package rimage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/posesearch/pointcloud"
)

// Depths outside (MinValidDepth, MaxValidDepth) are not back-projected.
const (
	MinValidDepth = 0.1
	MaxValidDepth = 1.0
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// Intrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type Intrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for Intrinsics have valid inputs.
func (params *Intrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width == 0 || params.Height == 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewIntrinsicsFromJSONFile takes in a file path to a JSON and turns it into Intrinsics.
func NewIntrinsicsFromJSONFile(jsonPath string) (*Intrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	intrinsics := &Intrinsics{}
	if err := json.Unmarshal(byteValue, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return intrinsics, intrinsics.CheckValid()
}

// PixelToPoint back-projects column x, row y at depth z into the camera frame.
func (params *Intrinsics) PixelToPoint(x, y, z float64) r3.Vector {
	return r3.Vector{
		X: (x - params.Ppx) * z / params.Fx,
		Y: (y - params.Ppy) * z / params.Fy,
		Z: z,
	}
}

// PointToPixel projects a camera-frame point onto the image plane. ok is false for points at or
// behind the camera.
func (params *Intrinsics) PointToPixel(p r3.Vector) (x, y float64, ok bool) {
	if p.Z <= 0 {
		return -1, -1, false
	}
	return p.X*params.Fx/p.Z + params.Ppx, p.Y*params.Fy/p.Z + params.Ppy, true
}

// DepthToPointCloud back-projects every pixel whose depth lies strictly between MinValidDepth
// and MaxValidDepth. Points are emitted in row-major pixel order.
func (params *Intrinsics) DepthToPointCloud(dm *DepthMap) pointcloud.PointCloud {
	pc := pointcloud.New()
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			d := float64(dm.GetDepth(x, y))
			if d > MinValidDepth && d < MaxValidDepth {
				pc.Append(params.PixelToPoint(float64(x), float64(y), d))
			}
		}
	}
	return pc
}

// ProjectPointCloud splats camera-frame points into dm, keeping the nearest depth per pixel.
// Pixel coordinates are truncated and must lie strictly inside the left and top edges.
func (params *Intrinsics) ProjectPointCloud(pc pointcloud.PointCloud, dm *DepthMap) {
	pc.Iterate(0, 0, func(_ int, p r3.Vector) bool {
		u, v, ok := params.PointToPixel(p)
		if !ok || u <= 0 || v <= 0 || u >= float64(dm.Width()) || v >= float64(dm.Height()) {
			return true
		}
		x, y := int(u), int(v)
		cur := dm.GetDepth(x, y)
		z := float32(p.Z)
		if cur == 0 || z < cur {
			dm.Set(x, y, z)
		}
		return true
	})
}
