package packer

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
)

func TestPack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sizes    []int
		capacity int
		wantBins int
		wantErr  error
	}{
		{
			name:     "ConcreteScenario",
			sizes:    []int{1, 2, 3, 4, 5},
			capacity: 5,
			wantBins: 3,
		},
		{
			name:     "SingleItemExactFit",
			sizes:    []int{5},
			capacity: 5,
			wantBins: 1,
		},
		{
			name:     "AllItemsInOneBin",
			sizes:    []int{1, 2, 3},
			capacity: 10,
			wantBins: 1,
		},
		{
			name:     "EachItemOwnBin",
			sizes:    []int{4, 4, 4},
			capacity: 5,
			wantBins: 3,
		},
		{
			name:     "SingleOversizedItem",
			sizes:    []int{10},
			capacity: 5,
			wantBins: 1,
		},
		{
			name:     "OversizedAmongRegular",
			sizes:    []int{2, 9, 3},
			capacity: 5,
			wantBins: 2,
		},
		{
			name:     "ZeroSizedItems",
			sizes:    []int{0, 0, 3},
			capacity: 3,
			wantBins: 1,
		},
		{
			name:     "EmptyInput",
			sizes:    []int{},
			capacity: 7,
			wantBins: 0,
		},
		{
			name:     "ZeroCapacity",
			sizes:    []int{1, 2, 3},
			capacity: 0,
			wantErr:  ErrInvalidCapacity,
		},
		{
			name:     "NegativeCapacity",
			sizes:    []int{1},
			capacity: -4,
			wantErr:  ErrInvalidCapacity,
		},
		{
			name:     "NegativeItemSize",
			sizes:    []int{3, -1, 2},
			capacity: 5,
			wantErr:  ErrNegativeSize,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			bins, err := New().Pack(tc.sizes, tc.capacity)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(bins) != tc.wantBins {
				t.Fatalf("expected %d bins, got %d (%v)", tc.wantBins, len(bins), bins)
			}

			assertConservation(t, tc.sizes, bins)
			assertCapacityBound(t, bins, tc.capacity)
		})
	}
}

func TestPackDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	sizes := []int{5, 1, 4, 2, 3}
	want := []int{5, 1, 4, 2, 3}

	if _, err := New().Pack(sizes, 6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("input mutated at index %d: got %v, want %v", i, sizes, want)
		}
	}
}

func TestPackDeterministicAggregates(t *testing.T) {
	t.Parallel()

	sizes := []int{7, 7, 3, 3, 5, 5, 2}

	first, err := New().Pack(sizes, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := New().Pack(sizes, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("bin count changed between runs: %d vs %d", len(again), len(first))
		}
		for b := range again {
			if binSum(again[b]) != binSum(first[b]) {
				t.Fatalf("bin %d sum changed between runs: %d vs %d", b, binSum(again[b]), binSum(first[b]))
			}
		}
	}
}

func TestPackCapacityMonotonicity(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		sizes := make([]int, 1+rng.Intn(40))
		for i := range sizes {
			sizes[i] = rng.Intn(20)
		}

		prevBins := -1
		for capacity := 1; capacity <= 40; capacity++ {
			bins, err := New().Pack(sizes, capacity)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if prevBins != -1 && len(bins) > prevBins {
				t.Fatalf("trial %d: capacity %d produced %d bins, capacity %d produced %d",
					trial, capacity-1, prevBins, capacity, len(bins))
			}
			prevBins = len(bins)
			assertConservation(t, sizes, bins)
		}
	}
}

func TestSearchForFit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sorted   []int
		capacity int
		want     int
	}{
		{name: "LargestFits", sorted: []int{1, 3, 5}, capacity: 9, want: 2},
		{name: "MiddleFits", sorted: []int{1, 3, 5}, capacity: 4, want: 1},
		{name: "ExactMatch", sorted: []int{1, 3, 5}, capacity: 3, want: 1},
		{name: "NothingFits", sorted: []int{4, 6}, capacity: 3, want: -1},
		{name: "EmptySequence", sorted: []int{}, capacity: 5, want: -1},
		{name: "RightmostOfEqualValues", sorted: []int{2, 4, 4, 4, 7}, capacity: 4, want: 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := searchForFit(tc.sorted, tc.capacity); got != tc.want {
				t.Fatalf("searchForFit(%v, %d) = %d, want %d", tc.sorted, tc.capacity, got, tc.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	got := Summarize([][]int{{5}, {4, 1}, {3, 2}})
	if got.BinCount != 3 {
		t.Fatalf("expected 3 bins, got %d", got.BinCount)
	}
	if got.TotalItems != 15 {
		t.Fatalf("expected total 15, got %d", got.TotalItems)
	}
}

func assertConservation(t *testing.T, sizes []int, bins [][]int) {
	t.Helper()

	var flat []int
	for _, bin := range bins {
		flat = append(flat, bin...)
	}
	if len(flat) != len(sizes) {
		t.Fatalf("expected %d items across bins, got %d", len(sizes), len(flat))
	}

	wantSorted := make([]int, len(sizes))
	copy(wantSorted, sizes)
	sort.Ints(wantSorted)
	sort.Ints(flat)
	for i := range wantSorted {
		if flat[i] != wantSorted[i] {
			t.Fatalf("item multiset changed: got %v, want %v", flat, wantSorted)
		}
	}
}

func assertCapacityBound(t *testing.T, bins [][]int, capacity int) {
	t.Helper()

	for i, bin := range bins {
		sum := binSum(bin)
		if sum <= capacity {
			continue
		}
		// A bin may exceed capacity only when it holds a single
		// oversized item.
		if len(bin) != 1 || bin[0] <= capacity {
			t.Fatalf("bin %d exceeds capacity %d without being a lone oversized item: %v", i, capacity, bin)
		}
	}
}

func binSum(bin []int) int {
	sum := 0
	for _, size := range bin {
		sum += size
	}
	return sum
}

func BenchmarkPack(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	sizes := make([]int, 4096)
	for i := range sizes {
		sizes[i] = 1 + rng.Intn(2048)
	}
	p := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Pack(sizes, 4096); err != nil {
			b.Fatal(err)
		}
	}
}
