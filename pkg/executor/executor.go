// Package executor translates prepared statements into cursor and codec
// operations. It owns no I/O of its own: rows are handed to the caller
// through a callback so the line REPL and the terminal UI can render them
// differently.
package executor

import (
	"fmt"
	"io"

	"tinytable/pkg/parser"
	"tinytable/pkg/storage/node"
	"tinytable/pkg/storage/row"
	"tinytable/pkg/storage/table"
)

// Result is the closed set of execution outcomes. TableFull is an expected
// condition the REPL reports; a non-nil error alongside any result is a
// system failure the REPL treats as fatal.
type Result int

const (
	Success Result = iota
	TableFull
)

// String names the result for traces and test failures.
func (r Result) String() string {
	switch r {
	case Success:
		return "EXECUTE_SUCCESS"
	case TableFull:
		return "EXECUTE_TABLE_FULL"
	default:
		return "EXECUTE_UNKNOWN"
	}
}

// Execute dispatches a prepared statement. For selects every stored row is
// passed to emit in stored order; emit may be nil for the other kinds.
func Execute(stmt parser.Statement, t *table.Table, emit func(*row.Row)) (Result, error) {
	switch stmt.Kind {
	case parser.StatementInsert:
		return Insert(t, stmt.Row)
	case parser.StatementSelect:
		return SelectAll(t, emit)
	case parser.StatementDelete:
		// Parsed for forward compatibility; deletion is a no-op for now.
		return Success, nil
	default:
		return Success, fmt.Errorf("unknown statement kind: %d", stmt.Kind)
	}
}

// Insert appends one row as a (key, value) cell at the end of the root leaf,
// with the row's id as the key. A saturated leaf yields TableFull and leaves
// the table untouched.
func Insert(t *table.Table, r *row.Row) (Result, error) {
	root, err := t.RootPage()
	if err != nil {
		return Success, err
	}

	if node.NumCells(root) >= node.LeafMaxCells {
		return TableFull, nil
	}

	cursor, err := t.End()
	if err != nil {
		return Success, err
	}
	if err := cursor.InsertLeaf(uint32(r.ID), r); err != nil {
		return Success, err
	}

	return Success, nil
}

// SelectAll walks the table from the beginning and emits every row in
// stored order.
func SelectAll(t *table.Table, emit func(*row.Row)) (Result, error) {
	cursor, err := t.Begin()
	if err != nil {
		return Success, err
	}

	for !cursor.EndOfTable() {
		slot, err := cursor.Value()
		if err != nil {
			return Success, err
		}

		r := &row.Row{}
		if err := r.Deserialize(slot); err != nil {
			return Success, err
		}
		if err := cursor.Advance(); err != nil {
			return Success, err
		}

		if emit != nil {
			emit(r)
		}
	}

	return Success, nil
}

// DumpTree prints the root leaf's keys to w, one line per cell. With verbose
// set, each line also carries the decoded row. This backs the .btree meta
// command.
func DumpTree(t *table.Table, w io.Writer, verbose bool) error {
	root, err := t.RootPage()
	if err != nil {
		return err
	}

	numCells := node.NumCells(root)
	fmt.Fprintln(w, "Tree:")
	fmt.Fprintf(w, "leaf (size %d)\n", numCells)

	for i := uint32(0); i < numCells; i++ {
		if verbose {
			r := &row.Row{}
			if err := r.Deserialize(node.Value(root, i)); err != nil {
				return err
			}
			fmt.Fprintf(w, "  - %d : %d (%s %s)\n", i, node.Key(root, i), r.UsernameString(), r.EmailString())
			continue
		}
		fmt.Fprintf(w, "  - %d : %d\n", i, node.Key(root, i))
	}

	return nil
}
