// Package render produces synthetic depth images of object meshes as seen by the scene camera.
package render

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/posesearch/rimage"
	"go.viam.com/posesearch/spatialmath"
)

// Renderer draws depth images of the meshes currently loaded into its scene. Implementations are
// stateful and not safe for concurrent use; share one through a Handle.
type Renderer interface {
	// ClearScene removes every mesh from the scene.
	ClearScene()

	// AddObject adds a mesh already placed in the world frame.
	AddObject(worldMesh *spatialmath.Mesh)

	// RenderDepth renders the scene from the given camera pose in the world. Depth is in meters,
	// zero where nothing was hit.
	RenderDepth(cameraPose spatialmath.Pose) (*rimage.DepthMap, error)
}

// Handle provides exclusive access to a single Renderer.
type Handle struct {
	mu       sync.Mutex
	renderer Renderer
}

// NewHandle wraps a renderer.
func NewHandle(r Renderer) *Handle {
	return &Handle{renderer: r}
}

// Render clears the scene, loads worldMeshes and renders them, holding the renderer for the
// whole sequence.
func (h *Handle) Render(
	ctx context.Context,
	cameraPose spatialmath.Pose,
	worldMeshes []*spatialmath.Mesh,
) (*rimage.DepthMap, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.renderer.ClearScene()
	defer h.renderer.ClearScene()
	for _, m := range worldMeshes {
		if m == nil {
			return nil, errors.New("cannot render a nil mesh")
		}
		h.renderer.AddObject(m)
	}
	return h.renderer.RenderDepth(cameraPose)
}
