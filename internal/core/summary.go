package core

// CategoryTotal is an expense total attributed to one category.
type CategoryTotal struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Total      Money  `json:"total"`
}

// MonthlySummary aggregates one calendar month of the ledger. ByCategory
// covers expense-type transactions only and omits categories with no spend.
type MonthlySummary struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"` // 1-12
	TotalIncome  Money           `json:"totalIncome"`
	TotalExpense Money           `json:"totalExpense"`
	Net          Money           `json:"net"`
	ByCategory   []CategoryTotal `json:"byCategory"`
}

// TrendPoint is one month of a trailing income/expense series.
type TrendPoint struct {
	Label   string `json:"month"` // e.g. "Feb 26"
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

// BudgetStatus is a budget joined with its category and the spend inside the
// current period window.
type BudgetStatus struct {
	Budget
	CategoryName  string `json:"categoryName"`
	CategoryColor string `json:"categoryColor"`
	Spent         Money  `json:"spent"`
}
