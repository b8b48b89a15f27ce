package spatial

import (
	"iter"

	"github.com/woozymasta/borderline/internal/geo"
)

// Linear is the fallback index for small sets. Nearest scans every
// remaining item: O(n) per query, O(1) removal.
type Linear struct {
	items []Item
	alive []bool
	pos   map[int]int
	left  int
	eps   float64
}

var _ Index = (*Linear)(nil)

// NewLinear indexes a copy of items.
func NewLinear(items []Item, eps float64) *Linear {
	l := &Linear{
		items: append([]Item(nil), items...),
		alive: make([]bool, len(items)),
		pos:   make(map[int]int, len(items)),
		left:  len(items),
		eps:   eps,
	}
	for i, it := range l.items {
		l.alive[i] = true
		l.pos[it.ID] = i
	}
	return l
}

// Nearest implements Index.
func (l *Linear) Nearest(from geo.Coordinate) (Item, bool) {
	if l.left == 0 {
		return Item{}, false
	}
	return choose(from, l.remaining(), l.eps)
}

// Remove implements Index.
func (l *Linear) Remove(id int) bool {
	i, ok := l.pos[id]
	if !ok || !l.alive[i] {
		return false
	}
	l.alive[i] = false
	l.left--
	return true
}

// Len implements Index.
func (l *Linear) Len() int { return l.left }

// IsEmpty implements Index.
func (l *Linear) IsEmpty() bool { return l.left == 0 }

func (l *Linear) remaining() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for i, it := range l.items {
			if !l.alive[i] {
				continue
			}
			if !yield(it) {
				return
			}
		}
	}
}
