package spatial

import (
	"slices"

	"github.com/dhconnelly/rtreego"
	"gonum.org/v1/gonum/spatial/r2"
)

// Disk is a circle in the plane.
type Disk struct {
	Center r2.Vec
	R      float64
}

// diskEntry stores a disk in the R-tree alongside its original index.
type diskEntry struct {
	rect  rtreego.Rect
	index int
}

func (e diskEntry) Bounds() rtreego.Rect { return e.rect }

// ObstacleIndex answers "which disks may lie within this radius" using an
// R-tree of disk bounding boxes.
type ObstacleIndex struct {
	tree *rtreego.Rtree
	n    int
}

// NewObstacleIndex bulk-loads an R-tree over disks.
// Disks with a non-positive radius are skipped.
func NewObstacleIndex(disks []Disk) *ObstacleIndex {
	spatials := make([]rtreego.Spatial, 0, len(disks))
	for i, d := range disks {
		if d.R <= 0 {
			continue
		}
		rect, err := boxAround(d.Center, d.R)
		if err != nil {
			continue
		}
		spatials = append(spatials, diskEntry{rect: rect, index: i})
	}
	return &ObstacleIndex{
		tree: rtreego.NewTree(2, 4, 16, spatials...),
		n:    len(spatials),
	}
}

// Len returns the number of indexed disks.
func (ix *ObstacleIndex) Len() int {
	return ix.n
}

// Within returns, in ascending order, the indices of disks whose bounding boxes
// intersect the square of half-width radius around center. It is a broad phase:
// callers still run an exact test on the candidates. A radius of zero or less
// is a point query.
func (ix *ObstacleIndex) Within(center r2.Vec, radius float64) []int {
	if ix == nil || ix.n == 0 {
		return nil
	}
	bb, err := boxAround(center, radius)
	if err != nil {
		return nil
	}
	hits := ix.tree.SearchIntersect(bb)
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(diskEntry).index)
	}
	slices.Sort(out)
	return out
}

// pointHalfWidth is the smallest query box; rtreego rejects zero-length sides.
const pointHalfWidth = 1e-9

func boxAround(c r2.Vec, r float64) (rtreego.Rect, error) {
	r = max(r, pointHalfWidth)
	return rtreego.NewRect(rtreego.Point{c.X - r, c.Y - r}, []float64{2 * r, 2 * r})
}
