package video

import (
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/atlasml/mmprep/internal/vision"
)

func newSampler(t *testing.T, frames int) *Sampler {
	t.Helper()

	proc, err := vision.NewProcessor(8, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err := NewSampler(frames, proc, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestNewSamplerValidation(t *testing.T) {
	t.Parallel()

	proc, err := vision.NewProcessor(8, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewSampler(0, proc, zaptest.NewLogger(t)); !errors.Is(err, ErrInvalidFrameCount) {
		t.Fatalf("expected ErrInvalidFrameCount, got %v", err)
	}
}

func TestSampleIndices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		frames int
		total  int
		want   []int
	}{
		{
			name:   "EvenlySpacedLongVideo",
			frames: 8,
			total:  80,
			want:   []int{0, 10, 20, 30, 40, 50, 60, 70},
		},
		{
			name:   "NonDivisibleTotal",
			frames: 8,
			total:  30,
			want:   []int{0, 3, 7, 11, 15, 18, 22, 26},
		},
		{
			name:   "ExactClipLength",
			frames: 8,
			total:  8,
			want:   []int{0, 1, 2, 3, 4, 5, 6, 7},
		},
		{
			name:   "ShortVideoDeduplicates",
			frames: 8,
			total:  5,
			want:   []int{0, 1, 2, 3, 4},
		},
		{
			name:   "SingleFrameVideo",
			frames: 8,
			total:  1,
			want:   []int{0},
		},
		{
			name:   "NoFrames",
			frames: 8,
			total:  0,
			want:   nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := newSampler(t, tc.frames).SampleIndices(tc.total)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d indices, got %d (%v)", len(tc.want), len(got), got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("index mismatch at %d: got %v, want %v", i, got, tc.want)
				}
			}
		})
	}
}

func TestParseFrameCount(t *testing.T) {
	t.Parallel()

	count, err := parseFrameCount("240\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 240 {
		t.Fatalf("expected 240, got %d", count)
	}

	if _, err := parseFrameCount("N/A\n"); !errors.Is(err, ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", err)
	}
}

func TestSelectFilter(t *testing.T) {
	t.Parallel()

	got := selectFilter([]int{0, 12, 25})
	want := `select=eq(n\,0)+eq(n\,12)+eq(n\,25)`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
