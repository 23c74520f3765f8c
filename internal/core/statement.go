package core

import "slices"

// TaggedRecord is one row of the combined ledger. Label is the category for
// income rows and the description for expense rows.
type TaggedRecord struct {
	Date   Date
	Kind   Kind
	Label  string
	Amount Money
}

// ChartPoint is one bar of the ledger chart.
type ChartPoint struct {
	Date   Date
	Kind   Kind
	Amount Money
}

// Statement is the combined ledger restricted to [From, To].
type Statement struct {
	From   Date
	To     Date
	Rows   []TaggedRecord
	Totals Totals
}

// CombineAndTag merges both collections: income rows first, then expense
// rows, each in insertion order.
func CombineAndTag(income []IncomeRecord, expense []ExpenseRecord) []TaggedRecord {
	out := make([]TaggedRecord, 0, len(income)+len(expense))
	for _, r := range income {
		out = append(out, TaggedRecord{Date: r.Date, Kind: KindIncome, Label: r.Category, Amount: r.Amount})
	}
	for _, r := range expense {
		out = append(out, TaggedRecord{Date: r.Date, Kind: KindExpense, Label: r.Description, Amount: r.Amount})
	}
	return out
}

// FilterRange keeps the rows dated inside the closed interval [start, end]
// and sorts them by date; rows on the same day keep their relative order.
// An inverted interval yields an empty result. Undated rows never match.
func FilterRange(rows []TaggedRecord, start, end Date) []TaggedRecord {
	out := make([]TaggedRecord, 0, len(rows))
	if start.After(end.Time) {
		return out
	}
	for _, r := range rows {
		if r.Date.IsEmpty() || r.Date.Before(start.Time) || r.Date.After(end.Time) {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b TaggedRecord) int {
		return a.Date.Compare(b.Date.Time)
	})
	return out
}

// DateBounds returns the earliest and latest dates among rows. With no dated
// rows there is no range at all and the error wraps ErrEmptyRangeInput.
func DateBounds(rows []TaggedRecord) (Date, Date, error) {
	var lo, hi Date
	for _, r := range rows {
		if r.Date.IsEmpty() {
			continue
		}
		if lo.IsEmpty() || r.Date.Before(lo.Time) {
			lo = r.Date
		}
		if hi.IsEmpty() || r.Date.After(hi.Time) {
			hi = r.Date
		}
	}
	if lo.IsEmpty() {
		return Date{}, Date{}, newValidationError(ErrEmptyRangeInput, "range", ReasonEmptyRange)
	}
	return lo, hi, nil
}

// BuildStatement combines, tags and filters the ledger. A missing bound
// (zero Date) defaults to the earliest or latest dated record; if a default
// is needed and the ledger has no dated records, the error wraps
// ErrEmptyRangeInput and the returned statement is empty.
func BuildStatement(income []IncomeRecord, expense []ExpenseRecord, from, to Date) (Statement, error) {
	rows := CombineAndTag(income, expense)
	if from.IsEmpty() || to.IsEmpty() {
		lo, hi, err := DateBounds(rows)
		if err != nil {
			return Statement{Rows: []TaggedRecord{}}, err
		}
		if from.IsEmpty() {
			from = lo
		}
		if to.IsEmpty() {
			to = hi
		}
	}
	filtered := FilterRange(rows, from, to)
	return Statement{
		From:   from,
		To:     to,
		Rows:   filtered,
		Totals: TotalsOf(filtered),
	}, nil
}

// ChartSeries projects rows onto chart points, keeping their order.
func ChartSeries(rows []TaggedRecord) []ChartPoint {
	out := make([]ChartPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, ChartPoint{Date: r.Date, Kind: r.Kind, Amount: r.Amount})
	}
	return out
}
