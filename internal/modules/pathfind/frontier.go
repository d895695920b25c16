package pathfind

import "container/heap"

type frontierItem struct {
	idx int     // arena index
	f   float64 // priority
	seq int     // insertion order, breaks f ties first-in-first-out
}

// frontier is a min-heap of open nodes keyed by f.
type frontier []frontierItem

func (q frontier) Len() int { return len(q) }

func (q frontier) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}

func (q frontier) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *frontier) Push(x any) { *q = append(*q, x.(frontierItem)) }

func (q *frontier) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

func (q *frontier) push(it frontierItem) { heap.Push(q, it) }

func (q *frontier) pop() frontierItem { return heap.Pop(q).(frontierItem) }
