package algo

// Item is a node entry in the search frontier.
type Item struct {
	Value    int     // node id in the search graph
	Priority float64 // tentative distance from the source
	Index    int     // index in the heap, maintained by heap.Interface
}

// PriorityQueue implements heap.Interface over frontier items.
// Use via container/heap: heap.Init, heap.Push, heap.Pop, heap.Fix.
type PriorityQueue []*Item

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	return pq[i].Priority < pq[j].Priority
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *PriorityQueue) Push(x any) {
	item := x.(*Item)
	item.Index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *PriorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.Index = -1
	*pq = old[:n-1]
	return item
}
