package node

import (
	"encoding/binary"

	"tinytable/pkg/storage/page"
	"tinytable/pkg/storage/row"
)

// Leaf node header layout: the common header followed by the cell count.
const (
	numCellsSize   = 4
	numCellsOffset = CommonHeaderSize

	// LeafHeaderSize is the offset at which the cell array begins.
	LeafHeaderSize = CommonHeaderSize + numCellsSize
)

// Leaf node body layout: a tight array of cells, each a 4-byte unsigned key
// followed by one serialized row.
const (
	KeySize   = 4
	ValueSize = row.SerializedSize

	// CellSize is the stride of the cell array.
	CellSize = KeySize + ValueSize

	spaceForCells = page.PageSize - LeafHeaderSize

	// LeafMaxCells is how many cells fit in one leaf after its header.
	LeafMaxCells = spaceForCells / CellSize
)

// InitLeaf formats a zeroed page as an empty leaf: cell count zero and node
// type set. The root flag is the caller's decision.
func InitLeaf(p []byte) {
	SetType(p, Leaf)
	SetNumCells(p, 0)
}

// NumCells reads the leaf's cell count.
func NumCells(p []byte) uint32 {
	return binary.LittleEndian.Uint32(p[numCellsOffset:])
}

// SetNumCells writes the leaf's cell count.
func SetNumCells(p []byte, n uint32) {
	binary.LittleEndian.PutUint32(p[numCellsOffset:], n)
}

// Cell returns the byte region of cell i, key and value together.
func Cell(p []byte, i uint32) []byte {
	start := LeafHeaderSize + i*CellSize
	return p[start : start+CellSize]
}

// Key reads the key of cell i.
func Key(p []byte, i uint32) uint32 {
	return binary.LittleEndian.Uint32(Cell(p, i))
}

// SetKey writes the key of cell i.
func SetKey(p []byte, i uint32, key uint32) {
	binary.LittleEndian.PutUint32(Cell(p, i), key)
}

// Value returns the value region of cell i, sized for exactly one row.
func Value(p []byte, i uint32) []byte {
	return Cell(p, i)[KeySize:]
}
