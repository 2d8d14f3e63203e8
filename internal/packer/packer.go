package packer

import (
	"sort"
)

type greedyPacker struct{}

// New creates a Packer based on a greedy largest-fit heuristic with
// binary search over the sorted remaining items.
func New() Packer {
	return &greedyPacker{}
}

// Pack partitions sizes into bins whose sums stay within capacity.
// The input slice is not modified; the packer works on a sorted copy.
//
// An item larger than capacity is not rejected: it occupies a bin of its
// own whose sum exceeds capacity. Callers that need a strict bound must
// filter such items beforehand.
func (p *greedyPacker) Pack(sizes []int, capacity int) ([][]int, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	for _, size := range sizes {
		if size < 0 {
			return nil, ErrNegativeSize
		}
	}

	remaining := make([]int, len(sizes))
	copy(remaining, sizes)
	sort.Ints(remaining)

	bins := make([][]int, 0)
	for len(remaining) > 0 {
		bin := make([]int, 0)
		left := capacity

		for {
			idx := searchForFit(remaining, left)
			if idx == -1 {
				break
			}
			left -= remaining[idx]
			bin = append(bin, remaining[idx])
			remaining = append(remaining[:idx], remaining[idx+1:]...)
		}

		if len(bin) == 0 {
			// The smallest remaining item exceeds the full capacity;
			// it still gets a bin of its own.
			bin = append(bin, remaining[0])
			remaining = remaining[1:]
		}

		bins = append(bins, bin)
	}

	return bins, nil
}

// searchForFit returns the index of the largest value in sorted that is
// at most capacity, or -1 when even the smallest value does not fit.
// With equal values present, the rightmost one is returned.
func searchForFit(sorted []int, capacity int) int {
	idx := sort.Search(len(sorted), func(i int) bool {
		return sorted[i] > capacity
	})
	return idx - 1
}

// Summarize wraps raw bins into a Packing with derived totals.
func Summarize(bins [][]int) Packing {
	total := 0
	for _, bin := range bins {
		for _, size := range bin {
			total += size
		}
	}
	return Packing{
		Bins:       bins,
		TotalItems: total,
		BinCount:   len(bins),
	}
}
