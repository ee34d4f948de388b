package scheduler

import (
	"container/heap"
	"time"
)

// trigger is one job's next scheduled firing. Each active (non-paused) job
// has at most one live trigger, the one its jobState points at; firing it
// pops it, runs the job, and pushes a fresh trigger for its next occurrence.
// Entries left behind by a pause, removal or replacement stay in the heap
// until popped, and are then dropped as stale.
type trigger struct {
	jobID   string
	runTime time.Time
	index   int
}

// triggerHeap is a min-heap ordered by runTime, grounded on the same
// container/heap pattern the retrieval pack's reference timer-wheel
// implementations use for a single next-deadline priority queue.
type triggerHeap []*trigger

func (h triggerHeap) Len() int { return len(h) }
func (h triggerHeap) Less(i, j int) bool {
	return h[i].runTime.Before(h[j].runTime)
}
func (h triggerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *triggerHeap) Push(x any) {
	t := x.(*trigger)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *triggerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

var (
	_ heap.Interface = (*triggerHeap)(nil)
)
