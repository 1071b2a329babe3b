// Package table binds a pager to the root page of the single table and owns
// the open/close lifecycle. Its cursor type is the only way rows enter or
// leave storage.
package table

import (
	"fmt"

	"tinytable/pkg/storage/node"
	"tinytable/pkg/storage/pager"
)

// Table is one open database: a pager, the root page index (always 0 while
// the tree is a single leaf), and a row counter kept for diagnostics. The
// counter mirrors the root leaf's cell count; the leaf header is the source
// of truth on disk.
type Table struct {
	pager    *pager.Pager
	rootPage uint32
	numRows  uint32
	path     string
}

// Open opens the database file at path, creating it if absent. A brand-new
// file gets page 0 formatted as an empty root leaf; an existing file has its
// row count read straight from the root leaf's header.
func Open(path string) (*Table, error) {
	p, err := pager.Open(path)
	if err != nil {
		return nil, err
	}

	t := &Table{
		pager:    p,
		rootPage: 0,
		path:     path,
	}

	if p.NumPages() == 0 {
		root, err := p.GetPage(t.rootPage)
		if err != nil {
			p.Close()
			return nil, err
		}
		node.InitLeaf(root)
		node.SetRoot(root, true)
		return t, nil
	}

	root, err := p.GetPage(t.rootPage)
	if err != nil {
		p.Close()
		return nil, err
	}
	t.numRows = node.NumCells(root)

	return t, nil
}

// Close flushes every cached page and closes the file. The table must not
// be used afterwards.
func (t *Table) Close() error {
	if err := t.pager.Close(); err != nil {
		return fmt.Errorf("failed to close table: %w", err)
	}
	return nil
}

// NumRows returns the number of rows stored across all leaf pages.
func (t *Table) NumRows() uint32 {
	return t.numRows
}

// Path returns the backing file's path.
func (t *Table) Path() string {
	return t.path
}

// Pager exposes the table's pager for diagnostics and debug tracing.
func (t *Table) Pager() *pager.Pager {
	return t.pager
}

// RootPage returns the root page's buffer.
func (t *Table) RootPage() ([]byte, error) {
	return t.pager.GetPage(t.rootPage)
}
