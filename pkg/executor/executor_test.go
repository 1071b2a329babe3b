package executor

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tinytable/pkg/parser"
	"tinytable/pkg/storage/node"
	"tinytable/pkg/storage/row"
	"tinytable/pkg/storage/table"
)

func openTestTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { tbl.Close() })
	return tbl
}

func collectRows(t *testing.T, tbl *table.Table) []*row.Row {
	t.Helper()
	var rows []*row.Row
	result, err := SelectAll(tbl, func(r *row.Row) { rows = append(rows, r) })
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if result != Success {
		t.Fatalf("SelectAll returned %v", result)
	}
	return rows
}

func TestInsertThenSelect(t *testing.T) {
	tbl := openTestTable(t)

	result, err := Insert(tbl, row.New(1, "alice", "a@x"))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if result != Success {
		t.Fatalf("Insert returned %v", result)
	}

	rows := collectRows(t, tbl)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].ID != 1 || rows[0].UsernameString() != "alice" || rows[0].EmailString() != "a@x" {
		t.Errorf("Unexpected row: %s", rows[0])
	}
}

func TestInsertAppendsInOrder(t *testing.T) {
	tbl := openTestTable(t)

	for i := int64(1); i <= 5; i++ {
		if _, err := Insert(tbl, row.New(i, "user", "u@e")); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	rows := collectRows(t, tbl)
	if len(rows) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(rows))
	}
	for i, r := range rows {
		if r.ID != int64(i+1) {
			t.Errorf("Expected id %d at position %d, got %d", i+1, i, r.ID)
		}
	}
}

func TestRoundTripFieldEquality(t *testing.T) {
	tbl := openTestTable(t)

	inserted := []*row.Row{
		row.New(1, "alice", "alice@example.com"),
		row.New(2, strings.Repeat("b", row.MaxUsernameLen), strings.Repeat("c", row.MaxEmailLen)),
		row.New(3, "d", "e"),
	}
	for _, r := range inserted {
		if _, err := Insert(tbl, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	rows := collectRows(t, tbl)
	if len(rows) != len(inserted) {
		t.Fatalf("Expected %d rows, got %d", len(inserted), len(rows))
	}
	for i, r := range rows {
		want := inserted[i]
		if r.ID != want.ID {
			t.Errorf("Row %d: expected id %d, got %d", i, want.ID, r.ID)
		}
		if !bytes.Equal(r.Username[:], want.Username[:]) {
			t.Errorf("Row %d: username bytes differ", i)
		}
		if !bytes.Equal(r.Email[:], want.Email[:]) {
			t.Errorf("Row %d: email bytes differ", i)
		}
	}
}

func TestTableFull(t *testing.T) {
	tbl := openTestTable(t)

	for i := int64(0); i < node.LeafMaxCells; i++ {
		result, err := Insert(tbl, row.New(i, "user", "u@e"))
		if err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
		if result != Success {
			t.Fatalf("Insert %d returned %v", i, result)
		}
	}

	result, err := Insert(tbl, row.New(99, "late", "l@e"))
	if err != nil {
		t.Fatalf("Saturating insert errored instead of reporting TableFull: %v", err)
	}
	if result != TableFull {
		t.Fatalf("Expected TABLE_FULL, got %v", result)
	}

	// The rejected insert must not have changed anything.
	if got := tbl.NumRows(); got != node.LeafMaxCells {
		t.Errorf("Expected row count %d after rejection, got %d", node.LeafMaxCells, got)
	}
	rows := collectRows(t, tbl)
	if len(rows) != node.LeafMaxCells {
		t.Errorf("Expected %d stored rows after rejection, got %d", node.LeafMaxCells, len(rows))
	}
}

func TestTableFullLeavesFileUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	tbl, err := table.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	for i := int64(0); i < node.LeafMaxCells; i++ {
		if _, err := Insert(tbl, row.New(i, "user", "u@e")); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}
	if err := tbl.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	tbl, err = table.Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if result, err := Insert(tbl, row.New(99, "late", "l@e")); err != nil || result != TableFull {
		t.Fatalf("Expected TABLE_FULL, got %v / %v", result, err)
	}
	if err := tbl.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("Rejected insert modified the database file")
	}
}

func TestDeleteIsNoOp(t *testing.T) {
	tbl := openTestTable(t)

	if _, err := Insert(tbl, row.New(1, "u", "e")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, err := Execute(parser.Statement{Kind: parser.StatementDelete}, tbl, nil)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if result != Success {
		t.Fatalf("Delete returned %v", result)
	}
	if got := tbl.NumRows(); got != 1 {
		t.Errorf("Expected delete to leave the table unchanged, got %d rows", got)
	}
}

func TestDumpTree(t *testing.T) {
	tbl := openTestTable(t)

	for i := int64(1); i <= 3; i++ {
		if _, err := Insert(tbl, row.New(i, "user", "u@e")); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := DumpTree(tbl, &buf, false); err != nil {
		t.Fatalf("DumpTree failed: %v", err)
	}

	expected := "Tree:\nleaf (size 3)\n  - 0 : 1\n  - 1 : 2\n  - 2 : 3\n"
	if buf.String() != expected {
		t.Errorf("Unexpected tree dump:\n%q\nwant:\n%q", buf.String(), expected)
	}
}

func TestDumpTreeVerboseIncludesRows(t *testing.T) {
	tbl := openTestTable(t)

	if _, err := Insert(tbl, row.New(7, "alice", "a@x")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	var buf bytes.Buffer
	if err := DumpTree(tbl, &buf, true); err != nil {
		t.Fatalf("DumpTree failed: %v", err)
	}
	if !strings.Contains(buf.String(), "  - 0 : 7 (alice a@x)") {
		t.Errorf("Verbose dump missing row detail:\n%s", buf.String())
	}
}
