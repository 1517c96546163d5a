package knn

import "container/heap"

type neighbour struct {
	index int
	dist  float64
}

// nearest keeps the k closest neighbours seen so far. It is a max-heap on
// distance so the farthest kept neighbour is at the root.
type nearest struct {
	k     int
	items []neighbour
}

func newNearest(k int) *nearest {
	return &nearest{k: k, items: make([]neighbour, 0, k)}
}

func (n *nearest) Len() int           { return len(n.items) }
func (n *nearest) Less(i, j int) bool { return n.items[i].dist > n.items[j].dist }
func (n *nearest) Swap(i, j int)      { n.items[i], n.items[j] = n.items[j], n.items[i] }

func (n *nearest) Push(x interface{}) {
	n.items = append(n.items, x.(neighbour))
}

func (n *nearest) Pop() interface{} {
	last := len(n.items) - 1
	x := n.items[last]
	n.items = n.items[:last]
	return x
}

func (n *nearest) offer(index int, dist float64) {
	if len(n.items) < n.k {
		heap.Push(n, neighbour{index: index, dist: dist})
		return
	}
	if dist < n.items[0].dist {
		n.items[0] = neighbour{index: index, dist: dist}
		heap.Fix(n, 0)
	}
}

func (n *nearest) reset() {
	n.items = n.items[:0]
}
