// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import (
	"container/heap"

	"github.com/cinegraph/cinegraph/internal/dataset"
)

// Ranker selects the top-k most similar items for a query index from the
// dataset's similarity matrix. It is stateless beyond the store reference
// and safe for concurrent use.
type Ranker struct {
	store *dataset.Store
}

// NewRanker creates a ranker over the given store.
func NewRanker(store *dataset.Store) *Ranker {
	return &Ranker{store: store}
}

// TopK returns the indices of the k items most similar to queryIdx,
// ordered by descending score with ascending index breaking ties. The
// query index itself is always excluded; self-similarity in the matrix is
// not trusted to sort it out. k larger than the number of other items is
// clamped, not an error.
//
// Selection runs over a bounded min-heap of size k, O(n log k), so small
// k against a large catalog does not pay for a full sort.
func (r *Ranker) TopK(queryIdx, k int) ([]int, error) {
	row, err := r.store.Row(queryIdx)
	if err != nil {
		return nil, err
	}

	if k < 0 {
		k = 0
	}
	if max := len(row) - 1; k > max {
		k = max
	}
	if k == 0 {
		return []int{}, nil
	}

	h := make(neighborHeap, 0, k)
	for j, score := range row {
		if j == queryIdx {
			continue
		}
		cand := scoredIndex{index: j, score: score}
		if len(h) < k {
			heap.Push(&h, cand)
			continue
		}
		// Replace the worst kept candidate when this one outranks it.
		if cand.outranks(h[0]) {
			h[0] = cand
			heap.Fix(&h, 0)
		}
	}

	// Pop yields worst-first; fill the result back to front.
	out := make([]int, len(h))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(scoredIndex).index
	}
	return out, nil
}

// scoredIndex pairs a catalog index with its similarity score.
type scoredIndex struct {
	index int
	score float64
}

// outranks reports whether s sorts ahead of o in the result ordering:
// higher score first, lower index on equal score.
func (s scoredIndex) outranks(o scoredIndex) bool {
	if s.score != o.score {
		return s.score > o.score
	}
	return s.index < o.index
}

// neighborHeap is a bounded min-heap keeping the k best candidates seen so
// far, with the worst kept candidate at the root.
type neighborHeap []scoredIndex

func (h neighborHeap) Len() int { return len(h) }

func (h neighborHeap) Less(i, j int) bool {
	// The root must be the candidate that loses to all others, so "less"
	// here means "outranked by".
	return h[j].outranks(h[i])
}

func (h neighborHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *neighborHeap) Push(x any) {
	*h = append(*h, x.(scoredIndex))
}

func (h *neighborHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
