package state

import (
	"os"
	"path/filepath"

	"go.viam.com/posesearch/pointcloud"
	"go.viam.com/posesearch/rimage"
)

const (
	batchDebugDir = "debug"
	treeDebugDir  = "debug_search"
	cloudDebugDir = "debug_clouds"
)

// debugPath returns the artifact path under the debug directory, creating its parent.
func (b *base) debugPath(subdir, name string) (string, bool) {
	dir := filepath.Join(b.opts.DebugDir, subdir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		b.logger.Warnw("cannot create debug directory", "dir", dir, "error", err)
		return "", false
	}
	return filepath.Join(dir, name), true
}

func (b *base) writeDebugDepth(dm *rimage.DepthMap, subdir string) {
	if !b.opts.Debug {
		return
	}
	path, ok := b.debugPath(subdir, "render"+b.stateID+".png")
	if !ok {
		return
	}
	if err := rimage.WriteDepthPNG(dm, path); err != nil {
		b.logger.Warnw("cannot write debug render", "path", path, "error", err)
	}
}

func (b *base) writeDebugCloud(pc pointcloud.PointCloud, name string) {
	if !b.opts.Debug {
		return
	}
	path, ok := b.debugPath(cloudDebugDir, name+b.stateID+".pcd")
	if !ok {
		return
	}
	if err := pointcloud.WriteToPCDFile(pc, path); err != nil {
		b.logger.Warnw("cannot write debug cloud", "path", path, "error", err)
	}
}
