package packer

import "errors"

var (
	// ErrInvalidCapacity is returned when the bin capacity is zero or negative.
	ErrInvalidCapacity = errors.New("capacity must be a positive integer")
	// ErrNegativeSize is returned when the input contains a negative item size.
	ErrNegativeSize = errors.New("item sizes must be non-negative integers")
)
