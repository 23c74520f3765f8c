package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"banchi/internal/core"
)

func sampleStatement() core.Statement {
	income := []core.IncomeRecord{{Date: core.NewDate(2025, 6, 1), Category: "ค่าหนังสือเรียน", Amount: core.Money{Cents: 50000}}}
	expense := []core.ExpenseRecord{{Date: core.NewDate(2025, 6, 2), Description: "Paper A4", Amount: core.Money{Cents: 12050}}}
	st, _ := core.BuildStatement(income, expense, core.Date{}, core.Date{})
	return st
}

func TestWriteStatementProducesPDF(t *testing.T) {
	var buf bytes.Buffer
	err := WriteStatement(&buf, sampleStatement(), Options{GeneratedAt: time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("WriteStatement: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestWriteStatementEmptyAndLong(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStatement(&buf, core.Statement{Rows: []core.TaggedRecord{}}, Options{Title: "Empty"}); err != nil {
		t.Fatalf("empty statement: %v", err)
	}

	rows := make([]core.TaggedRecord, 0, maxRows+10)
	for i := 0; i < maxRows+10; i++ {
		rows = append(rows, core.TaggedRecord{Date: core.NewDate(2025, 1, 1), Kind: core.KindExpense, Label: strings.Repeat("x", 120), Amount: core.Money{Cents: 1}})
	}
	buf.Reset()
	if err := WriteStatement(&buf, core.Statement{Rows: rows}, Options{}); err != nil {
		t.Fatalf("long statement: %v", err)
	}
}

func TestWriteStatementMissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := WriteStatement(&buf, sampleStatement(), Options{FontPath: filepath.Join(t.TempDir(), "nope.ttf")})
	if err == nil {
		t.Fatal("expected font error")
	}
}

func TestLatin1(t *testing.T) {
	if got := latin1("Café ค่า"); got != "Caf\xe9 ???" {
		t.Fatalf("latin1 = %q", got)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(sampleStatement()); got != "banchi-statement-2025-06-01-to-2025-06-02.pdf" {
		t.Fatalf("Filename = %q", got)
	}
}
