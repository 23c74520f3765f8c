package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Totals is the running summary of a ledger. Balance is always
// Income minus Expense.
type Totals struct {
	Income  Money
	Expense Money
	Balance Money
}

// ComputeTotals sums both collections. Empty collections sum to zero.
func ComputeTotals(income []IncomeRecord, expense []ExpenseRecord) Totals {
	var in, out int64
	for _, r := range income {
		in += r.Amount.Cents
	}
	for _, r := range expense {
		out += r.Amount.Cents
	}
	return newTotals(in, out)
}

// TotalsOf sums an already tagged (and possibly filtered) sequence.
func TotalsOf(rows []TaggedRecord) Totals {
	var in, out int64
	for _, r := range rows {
		switch r.Kind {
		case KindIncome:
			in += r.Amount.Cents
		case KindExpense:
			out += r.Amount.Cents
		}
	}
	return newTotals(in, out)
}

func newTotals(in, out int64) Totals {
	return Totals{
		Income:  Money{Cents: in},
		Expense: Money{Cents: out},
		Balance: Money{Cents: in - out},
	}
}

// IncomeByCategory returns one entry per fixed income category, in
// IncomeCategories order, including categories with no income yet.
func IncomeByCategory(income []IncomeRecord) []CategoryAmount {
	sums := make(map[string]int64, len(IncomeCategories))
	for _, r := range income {
		sums[r.Category] += r.Amount.Cents
	}
	out := make([]CategoryAmount, 0, len(IncomeCategories))
	for _, c := range IncomeCategories {
		out = append(out, CategoryAmount{Name: c, Amount: Money{Cents: sums[c]}})
	}
	return out
}
