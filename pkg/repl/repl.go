// Package repl implements the line-based read-eval-print loop: prompt, read
// one command, dispatch to the parser and executor, report the outcome.
// Reader and writer are injected so tests can drive whole sessions through
// in-memory buffers.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"tinytable/pkg/executor"
	"tinytable/pkg/parser"
	"tinytable/pkg/storage/node"
	"tinytable/pkg/storage/page"
	"tinytable/pkg/storage/pager"
	"tinytable/pkg/storage/row"
	"tinytable/pkg/storage/table"
)

const prompt = "> "

// REPL drives one interactive session over a table.
type REPL struct {
	table *table.Table
	in    *bufio.Scanner
	out   io.Writer
	debug bool
}

// New builds a REPL over the given table. With debug set, the pager's
// allocation events and the engine geometry are traced to out.
func New(t *table.Table, in io.Reader, out io.Writer, debug bool) *REPL {
	r := &REPL{
		table: t,
		in:    bufio.NewScanner(in),
		out:   out,
		debug: debug,
	}
	if debug {
		t.Pager().Trace = out
	}
	return r
}

// Run loops until .exit or end of input. Both paths close the table, which
// flushes every dirty page. User-input and table-full conditions are printed
// and the loop continues; anything else is returned for main to abort on.
func (r *REPL) Run() error {
	if r.debug {
		r.printEngineInfo()
	}

	for {
		fmt.Fprint(r.out, prompt)

		if !r.in.Scan() {
			if err := r.in.Err(); err != nil {
				r.table.Close()
				return fmt.Errorf("error reading input: %w", err)
			}
			// EOF: a clean close is the only durability point this engine has.
			return r.table.Close()
		}

		line := r.in.Text()
		if line == "" {
			fmt.Fprintln(r.out, "Empty input, please try again.")
			continue
		}

		if strings.HasPrefix(line, ".") {
			done, err := r.runMetaCommand(line)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			continue
		}

		stmt, prepareResult := parser.Prepare(line)
		if prepareResult != parser.PrepareSuccess {
			fmt.Fprintln(r.out, prepareResult.Message(line))
			continue
		}
		if r.debug && stmt.Kind == parser.StatementInsert {
			fmt.Fprintln(r.out, stmt.Row)
		}

		if err := r.executeStatement(stmt); err != nil {
			r.table.Close()
			return err
		}
	}
}

// runMetaCommand handles dot commands. It reports done=true when the session
// should end.
func (r *REPL) runMetaCommand(line string) (bool, error) {
	switch line {
	case ".exit":
		fmt.Fprintln(r.out, "Encountered exit, exiting...")
		if err := r.table.Close(); err != nil {
			return true, err
		}
		return true, nil
	case ".btree":
		if err := executor.DumpTree(r.table, r.out, r.debug); err != nil {
			r.table.Close()
			return true, err
		}
		return false, nil
	default:
		fmt.Fprintf(r.out, "Unrecognized command: %s\n", line)
		return false, nil
	}
}

func (r *REPL) executeStatement(stmt parser.Statement) error {
	switch stmt.Kind {
	case parser.StatementSelect:
		result, err := executor.Execute(stmt, r.table, func(rw *row.Row) {
			fmt.Fprintf(r.out, "[SELECT] (%d %s %s)\n", rw.ID, rw.UsernameString(), rw.EmailString())
		})
		if err != nil {
			return err
		}
		if result == executor.Success {
			fmt.Fprintf(r.out, "Returned %d rows.\n", r.table.NumRows())
		}
		return nil

	default:
		result, err := executor.Execute(stmt, r.table, nil)
		if err != nil {
			return err
		}
		switch result {
		case executor.TableFull:
			fmt.Fprintln(r.out, "[ERROR] Table is full, cannot insert the row")
		case executor.Success:
			if stmt.Kind == parser.StatementInsert {
				fmt.Fprintln(r.out, "Row inserted successfully.")
			}
		}
		return nil
	}
}

func (r *REPL) printEngineInfo() {
	fmt.Fprintf(r.out, "LEAF_MAX_CELLS: %d, ROW_SIZE: %d\n", node.LeafMaxCells, row.SerializedSize)
	fmt.Fprintf(r.out, "TABLE_MAX_PAGES: %d, PAGE_SIZE: %d, CELL_SIZE: %d\n", pager.MaxPages, page.PageSize, node.CellSize)
}
