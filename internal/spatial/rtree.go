package spatial

import (
	"github.com/dhconnelly/rtreego"

	"github.com/woozymasta/borderline/internal/geo"
)

// R-tree fan-out and the half-width of the box stored for each point.
const (
	rtreeMinChildren = 8
	rtreeMaxChildren = 32
	pointTolerance   = 1e-12
)

// RTree indexes items in a bulk-loaded 2-D R-tree.
//
// Nearest runs one best-first nearest-neighbor descent, then a box query
// of radius d+eps around from to collect every tied candidate, which keeps
// the tie rule exact: O(log n + k) for k candidates in the box.
// Remove deletes the node from the tree: O(log n) on average.
type RTree struct {
	tree  *rtreego.Rtree
	nodes map[int]*node
	eps   float64
}

var _ Index = (*RTree)(nil)

// node is the tree entry. Deletion matches entries by pointer, so equal
// coordinates from different items never collide.
type node struct {
	Item
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (n *node) Bounds() rtreego.Rect { return n.rect }

// NewRTree bulk-loads items into a new tree.
func NewRTree(items []Item, eps float64) *RTree {
	objs := make([]rtreego.Spatial, 0, len(items))
	nodes := make(map[int]*node, len(items))
	for _, it := range items {
		n := &node{
			Item: it,
			rect: rtreego.Point{it.Coordinate.X, it.Coordinate.Y}.ToRect(pointTolerance),
		}
		nodes[it.ID] = n
		objs = append(objs, n)
	}

	return &RTree{
		tree:  rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren, objs...),
		nodes: nodes,
		eps:   eps,
	}
}

// Nearest implements Index.
func (t *RTree) Nearest(from geo.Coordinate) (Item, bool) {
	if len(t.nodes) == 0 {
		return Item{}, false
	}

	hit, ok := t.tree.NearestNeighbor(rtreego.Point{from.X, from.Y}).(*node)
	if !ok || hit == nil {
		return Item{}, false
	}

	r := geo.Distance(from, hit.Coordinate) + t.eps + 2*pointTolerance
	box, err := rtreego.NewRectFromPoints(
		rtreego.Point{from.X - r, from.Y - r},
		rtreego.Point{from.X + r, from.Y + r},
	)
	if err != nil {
		return hit.Item, true
	}

	found := t.tree.SearchIntersect(box)
	return choose(from, func(yield func(Item) bool) {
		for _, s := range found {
			n, ok := s.(*node)
			if !ok {
				continue
			}
			if !yield(n.Item) {
				return
			}
		}
	}, t.eps)
}

// Remove implements Index.
func (t *RTree) Remove(id int) bool {
	n, ok := t.nodes[id]
	if !ok {
		return false
	}
	delete(t.nodes, id)
	return t.tree.Delete(n)
}

// Len implements Index.
func (t *RTree) Len() int { return len(t.nodes) }

// IsEmpty implements Index.
func (t *RTree) IsEmpty() bool { return len(t.nodes) == 0 }
