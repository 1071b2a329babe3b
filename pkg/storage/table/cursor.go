package table

import (
	"fmt"

	"tinytable/pkg/storage/node"
	"tinytable/pkg/storage/row"
)

// Cursor is a position over the stored cells: a page index, a cell index
// within that page, and a terminal flag. A cursor is a short-lived borrow of
// its table; it lives only for the duration of one logical operation.
type Cursor struct {
	table      *Table
	pageIndex  uint32
	cellIndex  uint32
	endOfTable bool
}

// Begin positions a cursor on the first cell of the root leaf. On an empty
// table the cursor starts already at the end.
func (t *Table) Begin() (*Cursor, error) {
	root, err := t.RootPage()
	if err != nil {
		return nil, err
	}

	return &Cursor{
		table:      t,
		pageIndex:  t.rootPage,
		cellIndex:  0,
		endOfTable: node.NumCells(root) == 0,
	}, nil
}

// End positions a cursor one past the last cell of the root leaf, where the
// next appended cell goes.
func (t *Table) End() (*Cursor, error) {
	root, err := t.RootPage()
	if err != nil {
		return nil, err
	}

	return &Cursor{
		table:      t,
		pageIndex:  t.rootPage,
		cellIndex:  node.NumCells(root),
		endOfTable: true,
	}, nil
}

// Value returns the writable value region of the cell under the cursor.
func (c *Cursor) Value() ([]byte, error) {
	p, err := c.table.pager.GetPage(c.pageIndex)
	if err != nil {
		return nil, err
	}
	return node.Value(p, c.cellIndex), nil
}

// Key returns the key of the cell under the cursor.
func (c *Cursor) Key() (uint32, error) {
	p, err := c.table.pager.GetPage(c.pageIndex)
	if err != nil {
		return 0, err
	}
	return node.Key(p, c.cellIndex), nil
}

// Advance moves the cursor to the next cell. Once the cell index reaches the
// page's cell count the cursor is at the end of the table and stays there.
func (c *Cursor) Advance() error {
	p, err := c.table.pager.GetPage(c.pageIndex)
	if err != nil {
		return err
	}

	c.cellIndex++
	if c.cellIndex >= node.NumCells(p) {
		c.endOfTable = true
	}
	return nil
}

// EndOfTable reports whether the cursor has moved past the last cell.
func (c *Cursor) EndOfTable() bool {
	return c.endOfTable
}

// InsertLeaf writes a (key, row) cell at the cursor's position. Cells at and
// after the position shift one slot right, so inserting mid-leaf keeps the
// array tight; the executor currently always inserts at the end. A full leaf
// is an invariant violation here — the executor checks capacity first, and
// node splitting does not exist yet.
func (c *Cursor) InsertLeaf(key uint32, r *row.Row) error {
	p, err := c.table.pager.GetPage(c.pageIndex)
	if err != nil {
		return err
	}

	numCells := node.NumCells(p)
	if numCells >= node.LeafMaxCells {
		return fmt.Errorf("leaf node full: splitting is not implemented")
	}

	if c.cellIndex < numCells {
		for i := numCells; i > c.cellIndex; i-- {
			copy(node.Cell(p, i), node.Cell(p, i-1))
		}
	}

	node.SetKey(p, c.cellIndex, key)
	if err := r.Serialize(node.Value(p, c.cellIndex)); err != nil {
		return err
	}
	node.SetNumCells(p, numCells+1)
	c.table.numRows++

	return nil
}
