package pointcloud

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// kdPoint is a point stored in the tree along with its index in the source cloud. The tree
// reorders its backing slice while building, so the index has to travel with the point.
type kdPoint struct {
	r3.Vector
	idx int
}

// Compare returns the signed distance of a from the plane passing through b and
// perpendicular to the dimension d.
func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(kdPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		return p.Z - q.Z
	}
}

// Dims returns the number of dimensions described by the receiver.
func (p kdPoint) Dims() int {
	return 3
}

// Distance returns the squared Euclidean distance between c and the receiver.
func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(kdPoint)
	return p.Vector.Sub(q.Vector).Norm2()
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p kdPoints) Len() int                              { return len(p) }
func (p kdPoints) Pivot(d kdtree.Dim) int                { return kdPlane{Dim: d, kdPoints: p}.Pivot() }
func (p kdPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// kdPlane is required to help points.
type kdPlane struct {
	kdtree.Dim
	kdPoints
}

func (p kdPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.kdPoints[i].X < p.kdPoints[j].X
	case 1:
		return p.kdPoints[i].Y < p.kdPoints[j].Y
	default:
		return p.kdPoints[i].Z < p.kdPoints[j].Z
	}
}

func (p kdPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.kdPoints = p.kdPoints[start:end]
	return p
}

func (p kdPlane) Swap(i, j int) {
	p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i]
}

// KDTree is a spatial index over a point cloud. It is read-only once built and safe for
// concurrent queries.
type KDTree struct {
	tree  *kdtree.Tree
	cloud PointCloud
}

// ToKDTree creates a KDTree from an input PointCloud.
func ToKDTree(pc PointCloud) *KDTree {
	kd := &KDTree{cloud: pc}
	if pc.Size() == 0 {
		return kd
	}
	pts := make(kdPoints, 0, pc.Size())
	pc.Iterate(0, 0, func(i int, p r3.Vector) bool {
		pts = append(pts, kdPoint{Vector: p, idx: i})
		return true
	})
	kd.tree = kdtree.New(pts, false)
	return kd
}

// Size returns the number of indexed points.
func (kd *KDTree) Size() int {
	return kd.cloud.Size()
}

// Cloud returns the indexed point cloud.
func (kd *KDTree) Cloud() PointCloud {
	return kd.cloud
}

// NearestNeighbor returns the index of the nearest point to the query, the point itself and
// its Euclidean distance. ok is false when the tree is empty.
func (kd *KDTree) NearestNeighbor(p r3.Vector) (idx int, nearest r3.Vector, dist float64, ok bool) {
	if kd.tree == nil {
		return -1, r3.Vector{}, math.Inf(1), false
	}
	c, d := kd.tree.Nearest(kdPoint{Vector: p})
	if c == nil {
		return -1, r3.Vector{}, math.Inf(1), false
	}
	found := c.(kdPoint)
	return found.idx, found.Vector, math.Sqrt(d), true
}

// RadiusNearestNeighbors returns the indices of all points within radius r of the query,
// nearest first.
func (kd *KDTree) RadiusNearestNeighbors(p r3.Vector, r float64) []int {
	if kd.tree == nil {
		return nil
	}
	keep := kdtree.NewDistKeeper(r * r)
	kd.tree.NearestSet(keep, kdPoint{Vector: p})

	// the keeper is a max-heap; sort by distance so callers see nearest first.
	found := make([]kdtree.ComparableDist, 0, len(keep.Heap))
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		found = append(found, c)
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].Dist < found[j].Dist })

	idxs := make([]int, 0, len(found))
	for _, c := range found {
		idxs = append(idxs, c.Comparable.(kdPoint).idx)
	}
	return idxs
}

// HasNeighborWithin reports whether any indexed point lies within radius r of the query.
func (kd *KDTree) HasNeighborWithin(p r3.Vector, r float64) bool {
	_, _, dist, ok := kd.NearestNeighbor(p)
	return ok && dist <= r
}
