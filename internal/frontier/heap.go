package frontier

// entityHeap implements container/heap over pending entity records.
//
// Ordering: highest depth-discounted priority first, then shallower
// depth, then earliest discovery. The last rule makes dispatch order
// deterministic for equal-priority ties.
type entityHeap struct {
	f     *Frontier
	items []*record
}

func (h *entityHeap) Len() int { return len(h.items) }

func (h *entityHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]

	ea, eb := h.f.effective(a), h.f.effective(b)
	if ea != eb {
		return ea > eb
	}
	if a.entity.Depth != b.entity.Depth {
		return a.entity.Depth < b.entity.Depth
	}
	return a.seq < b.seq
}

func (h *entityHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *entityHeap) Push(x any) {
	rec := x.(*record)
	rec.index = len(h.items)
	rec.queued = true
	h.items = append(h.items, rec)
}

func (h *entityHeap) Pop() any {
	old := h.items
	n := len(old)
	rec := old[n-1]
	old[n-1] = nil
	rec.index = -1
	rec.queued = false
	h.items = old[:n-1]
	return rec
}
