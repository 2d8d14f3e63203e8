// Package tensor provides a minimal dense float32 tensor used by the
// image and video preprocessing stages.
package tensor

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when tensors with different shapes are combined.
	ErrShapeMismatch = errors.New("tensor shapes do not match")
	// ErrEmptyStack is returned when stacking an empty list of tensors.
	ErrEmptyStack = errors.New("cannot stack zero tensors")
)

// Tensor is a dense float32 tensor in row-major layout.
type Tensor struct {
	Shape []int
	Data  []float32
}

// New allocates a zero-filled tensor with the given shape.
func New(shape ...int) *Tensor {
	return &Tensor{
		Shape: shape,
		Data:  make([]float32, NumElements(shape)),
	}
}

// NumElements returns the number of elements a shape describes.
func NumElements(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}

// SameShape reports whether two shapes are identical.
func SameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Stack combines tensors of identical shape along a new leading axis,
// producing a tensor of shape (len(ts), shape...).
func Stack(ts []*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, ErrEmptyStack
	}

	base := ts[0].Shape
	for i, t := range ts[1:] {
		if !SameShape(base, t.Shape) {
			return nil, fmt.Errorf("%w: tensor 0 has shape %v, tensor %d has shape %v",
				ErrShapeMismatch, base, i+1, t.Shape)
		}
	}

	shape := append([]int{len(ts)}, base...)
	out := New(shape...)
	stride := NumElements(base)
	for i, t := range ts {
		copy(out.Data[i*stride:(i+1)*stride], t.Data)
	}
	return out, nil
}
