package tensor

import (
	"errors"
	"testing"
)

func TestNewAllocatesShape(t *testing.T) {
	t.Parallel()

	tr := New(3, 4, 2)
	if len(tr.Data) != 24 {
		t.Fatalf("expected 24 elements, got %d", len(tr.Data))
	}
	if !SameShape(tr.Shape, []int{3, 4, 2}) {
		t.Fatalf("unexpected shape %v", tr.Shape)
	}
}

func TestStack(t *testing.T) {
	t.Parallel()

	a := New(2, 2)
	for i := range a.Data {
		a.Data[i] = float32(i)
	}
	b := New(2, 2)
	for i := range b.Data {
		b.Data[i] = float32(10 + i)
	}

	stacked, err := Stack([]*Tensor{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !SameShape(stacked.Shape, []int{2, 2, 2}) {
		t.Fatalf("expected shape [2 2 2], got %v", stacked.Shape)
	}
	if stacked.Data[0] != 0 || stacked.Data[4] != 10 {
		t.Fatalf("stacked data out of order: %v", stacked.Data)
	}
}

func TestStackRejectsMismatchedShapes(t *testing.T) {
	t.Parallel()

	_, err := Stack([]*Tensor{New(2, 2), New(2, 3)})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestStackRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	_, err := Stack(nil)
	if !errors.Is(err, ErrEmptyStack) {
		t.Fatalf("expected ErrEmptyStack, got %v", err)
	}
}
