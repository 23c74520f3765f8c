// Package report renders ledger statements as PDF documents.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"banchi/internal/core"
)

const (
	unicodeFamily = "ledger"
	coreFamily    = "Helvetica"
	maxRows       = 500
	pageBreakY    = 270
)

// Options controls statement rendering.
type Options struct {
	Title string
	// FontPath names a TTF font with Thai glyphs. Without it the core
	// Helvetica font is used and non Latin-1 text is replaced with '?'.
	FontPath    string
	GeneratedAt time.Time
}

type labels struct {
	title, period, income, expense, balance string
	date, kind, item, amount, empty         string
	truncated, generated                    string
}

var thaiLabels = labels{
	title: "รายงานบัญชีโรงเรียน", period: "ช่วงวันที่", income: "รายรับ", expense: "รายจ่าย", balance: "คงเหลือ",
	date: "วันที่", kind: "ประเภท", item: "รายการ", amount: "จำนวนเงิน (บาท)", empty: "ไม่มีรายการในช่วงวันที่นี้",
	truncated: "...แสดงบางส่วน (รายการมากเกินไป)", generated: "สร้างเมื่อ",
}

var latinLabels = labels{
	title: "School Ledger Statement", period: "Period", income: "Income", expense: "Expense", balance: "Balance",
	date: "DATE", kind: "TYPE", item: "ITEM", amount: "AMOUNT (THB)", empty: "No records in this period",
	truncated: "...truncated (too many rows)", generated: "Generated",
}

// WriteStatement renders st as an A4 PDF into w.
func WriteStatement(w io.Writer, st core.Statement, opts Options) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)

	family, lbl, text := coreFamily, latinLabels, latin1
	if opts.FontPath != "" {
		if _, err := os.Stat(opts.FontPath); err != nil {
			return fmt.Errorf("load font %s: %w", opts.FontPath, err)
		}
		pdf.AddUTF8Font(unicodeFamily, "", opts.FontPath)
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("load font %s: %w", opts.FontPath, err)
		}
		family, lbl, text = unicodeFamily, thaiLabels, func(s string) string { return s }
	}
	// The unicode family has only a regular style.
	bold := "B"
	if family == unicodeFamily {
		bold = ""
	}

	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}
	title := lbl.title
	if opts.Title != "" {
		title = opts.Title
	}

	pdf.AddPage()
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont(family, bold, 18)
	pdf.Cell(0, 10, text(title))
	pdf.Ln(10)

	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, text(lbl.period+": "+st.From.String()+" - "+st.To.String()))
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont(family, bold, 11)

	sumW := 182.0 / 3
	pdf.CellFormat(sumW, 10, text(lbl.income), "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW, 10, text(lbl.expense), "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW, 10, text(lbl.balance), "1", 1, "C", true, 0, "")

	pdf.SetFont(family, "", 11)
	pdf.CellFormat(sumW, 10, core.FormatAmount(st.Totals.Income), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW, 10, core.FormatAmount(st.Totals.Expense), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW, 10, core.FormatAmount(st.Totals.Balance), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	colW := []float64{28, 26, 90, 38}
	header := func() {
		pdf.SetFont(family, bold, 10)
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(colW[0], 8, text(lbl.date), "1", 0, "C", true, 0, "")
		pdf.CellFormat(colW[1], 8, text(lbl.kind), "1", 0, "C", true, 0, "")
		pdf.CellFormat(colW[2], 8, text(lbl.item), "1", 0, "L", true, 0, "")
		pdf.CellFormat(colW[3], 8, text(lbl.amount), "1", 1, "R", true, 0, "")
		pdf.SetFont(family, "", 9)
	}
	header()

	if len(st.Rows) == 0 {
		pdf.CellFormat(0, 8, text(lbl.empty), "1", 1, "C", false, 0, "")
	}

	for i, r := range st.Rows {
		if i >= maxRows {
			pdf.CellFormat(0, 8, text(lbl.truncated), "1", 1, "C", false, 0, "")
			break
		}
		if pdf.GetY() > pageBreakY {
			pdf.AddPage()
			header()
		}

		kind := lbl.income
		amount := core.FormatAmount(r.Amount)
		if r.Kind == core.KindExpense {
			kind = lbl.expense
			amount = "-" + amount
		}

		pdf.CellFormat(colW[0], 8, r.Date.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[1], 8, text(kind), "1", 0, "C", false, 0, "")

		x, y := pdf.GetX(), pdf.GetY()
		pdf.MultiCell(colW[2], 8, text(trimTo(r.Label, 90)), "1", "L", false)
		usedH := pdf.GetY() - y
		pdf.SetXY(x+colW[2], y)
		pdf.CellFormat(colW[3], usedH, amount, "1", 1, "R", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont(family, "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, text(lbl.generated+" "+opts.GeneratedAt.Format(time.RFC3339)), "", 0, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf build failed: %w", err)
	}
	return nil
}

// Filename is the download name of the statement for [from, to].
func Filename(st core.Statement) string {
	return "banchi-statement-" + st.From.String() + "-to-" + st.To.String() + ".pdf"
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "..."
}

// latin1 keeps text drawable with the core fonts.
func latin1(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
		} else if r <= 0xFF {
			b.WriteByte(byte(r))
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
