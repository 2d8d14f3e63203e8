package packer

// Packing represents a summary of a packing run.
// BinCount and TotalItems are derived values that callers can use when they
// need aggregated information in addition to the raw bins.
type Packing struct {
	Bins       [][]int
	TotalItems int
	BinCount   int
}

// Packer describes the behaviour required from a sequence packer.
type Packer interface {
	Pack(sizes []int, capacity int) ([][]int, error)
}
