package http

import (
	"html/template"

	"banchi/internal/core"
	"banchi/internal/services"
)

type categoryRow struct {
	Name   string
	Amount string
}

type summaryView struct {
	Income     string
	Expense    string
	Balance    string
	Negative   bool
	Incomes    int
	Expenses   int
	ByCategory []categoryRow
}

type recordRow struct {
	Date   string
	Kind   string
	Label  string
	Amount string
}

type recordsView struct {
	DatesEnabled bool
	Incomes      []recordRow
	Expenses     []recordRow
}

type statementView struct {
	From     string
	To       string
	Rows     []recordRow
	Summary  summaryView
	Message  string
	PDFQuery template.URL
}

type pageData struct {
	Title        string
	Banner       string
	DatesEnabled bool
	Today        string
	Categories   []string
	Summary      summaryView
	Records      recordsView
	Statement    statementView
}

func newSummaryView(s services.Summary) summaryView {
	v := summaryView{
		Income:   formatBaht(s.Totals.Income),
		Expense:  formatBaht(s.Totals.Expense),
		Balance:  formatBaht(s.Totals.Balance),
		Negative: s.Totals.Balance.Cents < 0,
		Incomes:  s.Incomes,
		Expenses: s.Expenses,
	}
	for _, c := range s.ByCategory {
		v.ByCategory = append(v.ByCategory, categoryRow{Name: c.Name, Amount: formatBaht(c.Amount)})
	}
	return v
}

func newRecordsView(income []core.IncomeRecord, expense []core.ExpenseRecord, dates bool) recordsView {
	v := recordsView{DatesEnabled: dates}
	for _, r := range income {
		v.Incomes = append(v.Incomes, recordRow{Date: r.Date.String(), Kind: core.KindIncome.Label(), Label: r.Category, Amount: core.FormatAmount(r.Amount)})
	}
	for _, r := range expense {
		v.Expenses = append(v.Expenses, recordRow{Date: r.Date.String(), Kind: core.KindExpense.Label(), Label: r.Description, Amount: core.FormatAmount(r.Amount)})
	}
	return v
}

func newStatementView(st core.Statement) statementView {
	v := statementView{
		From: st.From.String(),
		To:   st.To.String(),
		Summary: summaryView{
			Income:   formatBaht(st.Totals.Income),
			Expense:  formatBaht(st.Totals.Expense),
			Balance:  formatBaht(st.Totals.Balance),
			Negative: st.Totals.Balance.Cents < 0,
		},
		PDFQuery: template.URL(RangeParams{From: st.From, To: st.To}.Query()),
	}
	for _, r := range st.Rows {
		v.Rows = append(v.Rows, recordRow{Date: r.Date.String(), Kind: r.Kind.Label(), Label: r.Label, Amount: core.FormatAmount(r.Amount)})
		switch r.Kind {
		case core.KindIncome:
			v.Summary.Incomes++
		case core.KindExpense:
			v.Summary.Expenses++
		}
	}
	return v
}

// chartPayload is the JSON body of /api/chart.
type chartPayload struct {
	From    string       `json:"from"`
	To      string       `json:"to"`
	Points  []chartPoint `json:"points"`
	Income  float64      `json:"income"`
	Expense float64      `json:"expense"`
	Balance float64      `json:"balance"`
	Message string       `json:"message,omitempty"`
}

type chartPoint struct {
	Date   string  `json:"date"`
	Kind   string  `json:"kind"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

func newChartPayload(st core.Statement) chartPayload {
	p := chartPayload{
		From:    st.From.String(),
		To:      st.To.String(),
		Points:  make([]chartPoint, 0, len(st.Rows)),
		Income:  st.Totals.Income.Baht(),
		Expense: st.Totals.Expense.Baht(),
		Balance: st.Totals.Balance.Baht(),
	}
	for _, pt := range core.ChartSeries(st.Rows) {
		p.Points = append(p.Points, chartPoint{Date: pt.Date.String(), Kind: string(pt.Kind), Label: pt.Kind.Label(), Amount: pt.Amount.Baht()})
	}
	return p
}
