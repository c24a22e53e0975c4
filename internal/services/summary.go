package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/core"
	"tally/internal/storage"
)

// Summary computes read-only aggregations over the ledger.
type Summary struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewSummary(storage *storage.SQLiteRepository) *Summary {
	return &Summary{
		storage: storage,
		now:     time.Now,
	}
}

// Monthly aggregates one calendar month: income and expense totals, net, and
// expense spend grouped by category.
func (s *Summary) Monthly(ctx context.Context, year, month int) (core.MonthlySummary, error) {
	if month < 1 || month > 12 {
		return core.MonthlySummary{}, fmt.Errorf("month %d: %w", month, core.ErrInvalidDate)
	}
	start, end := core.MonthRange(year, month)

	var (
		income, expense int64
		byCategory      []core.CategoryTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.storage.SumAmountByType(gctx, core.TypeIncome, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		expense, err = s.storage.SumAmountByType(gctx, core.TypeExpense, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		byCategory, err = s.storage.ExpenseTotalsByCategory(gctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary %d-%02d: %w", year, month, err)
	}

	return core.MonthlySummary{
		Year:         year,
		Month:        month,
		TotalIncome:  core.Money{Cents: income},
		TotalExpense: core.Money{Cents: expense},
		Net:          core.Money{Cents: income - expense},
		ByCategory:   byCategory,
	}, nil
}

// Trend returns income and expense totals for the trailing months up to and
// including the current one, oldest first.
func (s *Summary) Trend(ctx context.Context, months int) ([]core.TrendPoint, error) {
	if months < 1 {
		months = 6
	}

	points := make([]core.TrendPoint, months)
	// Anchor to the first of the current month: stepping back from day 29-31
	// would normalize into the wrong month.
	current := s.now()
	anchor := time.Date(current.Year(), current.Month(), 1, 0, 0, 0, 0, time.UTC)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < months; i++ {
		offset := months - 1 - i
		d := anchor.AddDate(0, -offset, 0)
		idx := i
		year, month := d.Year(), int(d.Month())
		label := d.Format("Jan 06")
		g.Go(func() error {
			start, end := core.MonthRange(year, month)
			income, err := s.storage.SumAmountByType(gctx, core.TypeIncome, start, end)
			if err != nil {
				return err
			}
			expense, err := s.storage.SumAmountByType(gctx, core.TypeExpense, start, end)
			if err != nil {
				return err
			}
			points[idx] = core.TrendPoint{
				Label:   label,
				Income:  core.Money{Cents: income},
				Expense: core.Money{Cents: expense},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("trend over %d months: %w", months, err)
	}
	return points, nil
}

// BudgetsWithSpent returns every budget joined with its category and the
// expense spend inside the current period window.
func (s *Summary) BudgetsWithSpent(ctx context.Context) ([]core.BudgetStatus, error) {
	budgets, err := s.storage.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("budgets with spent: %w", err)
	}

	now := s.now()
	statuses := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		var start, end core.Date
		switch b.Period {
		case core.PeriodWeekly:
			start, end = core.WeekRange(core.DateOf(now))
		default:
			start, end = core.MonthRange(now.Year(), int(now.Month()))
		}

		spent, err := s.storage.SumCategoryExpenses(ctx, b.CategoryID, start, end)
		if err != nil {
			return nil, fmt.Errorf("budget %d spent: %w", b.ID, err)
		}

		status := core.BudgetStatus{
			Budget:        b,
			CategoryName:  "Unknown",
			CategoryColor: "#888",
			Spent:         core.Money{Cents: spent},
		}
		if cat, err := s.storage.GetCategory(ctx, b.CategoryID); err == nil {
			status.CategoryName = cat.Name
			status.CategoryColor = cat.Color
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
