// Package spatial provides nearest-neighbour structures over scenario entities.
package spatial

import (
	"cmp"
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrIndexStale is the panic value raised when a query reaches an index that
// was not rebuilt after its point set changed.
var ErrIndexStale = errors.New("spatial index is stale")

// Neighbor is one entry of a distance ranking.
type Neighbor struct {
	Dist  float64 // Euclidean distance from the query point
	Index int     // Index into the point slice the index was built from
}

// CoreIndex ranks core centres by distance to a query point.
// The zero value is stale; Build must be called before any query.
type CoreIndex struct {
	tree  *kdtree.Tree
	n     int
	built bool
}

// Build discards any prior tree and indexes points.
func (ix *CoreIndex) Build(points []r2.Vec) {
	pts := make(indexedPoints, len(points))
	for i, p := range points {
		pts[i] = indexedPoint{coords: kdtree.Point{p.X, p.Y}, index: i}
	}
	ix.tree = nil
	if len(pts) > 0 {
		ix.tree = kdtree.New(pts, false)
	}
	ix.n = len(points)
	ix.built = true
}

// Invalidate marks the index stale until the next Build.
func (ix *CoreIndex) Invalidate() {
	ix.tree = nil
	ix.built = false
}

// Built reports whether the index reflects its point set.
func (ix *CoreIndex) Built() bool {
	return ix.built
}

// Len returns the number of indexed points.
func (ix *CoreIndex) Len() int {
	return ix.n
}

// Ranked returns the k points nearest to p in ascending distance order.
// Ties are broken by original index. k is clamped to Len().
func (ix *CoreIndex) Ranked(p r2.Vec, k int) []Neighbor {
	if !ix.built {
		panic(ErrIndexStale)
	}
	if k > ix.n {
		k = ix.n
	}
	if k <= 0 || ix.tree == nil {
		return nil
	}

	keep := kdtree.NewNKeeper(k)
	ix.tree.NearestSet(keep, indexedPoint{coords: kdtree.Point{p.X, p.Y}, index: -1})

	out := make([]Neighbor, 0, k)
	for _, c := range keep.Heap {
		// NKeeper seeds its heap with a sentinel that carries no point.
		if c.Comparable == nil {
			continue
		}
		out = append(out, Neighbor{Dist: math.Sqrt(c.Dist), Index: c.Comparable.(indexedPoint).index})
	}
	slices.SortFunc(out, func(a, b Neighbor) int {
		if c := cmp.Compare(a.Dist, b.Dist); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return out
}

// indexedPoint is a kd-tree point that remembers its position in the source slice.
type indexedPoint struct {
	coords kdtree.Point
	index  int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coords[d] - c.(indexedPoint).coords[d]
}

func (p indexedPoint) Dims() int { return len(p.coords) }

// Distance returns the squared Euclidean distance, as kdtree expects.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	return p.coords.Distance(c.(indexedPoint).coords)
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int                      { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

func (p indexedPoints) Pivot(d kdtree.Dim) int {
	pl := plane{points: p, dim: d}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}

// plane sorts points along one dimension for median selection.
type plane struct {
	points indexedPoints
	dim    kdtree.Dim
}

func (p plane) Len() int { return len(p.points) }
func (p plane) Less(i, j int) bool {
	return p.points[i].coords[p.dim] < p.points[j].coords[p.dim]
}
func (p plane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
