package core

import (
	"testing"
	"time"
)

func int64p(v int64) *int64 { return &v }

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Type:      TypeExpense,
		Amount:    Money{Cents: 1500},
		AccountID: 1,
		Date:      NewDate(2026, 2, 14),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		txn  Transaction
		want error
	}{
		{
			name: "unknown type",
			txn:  Transaction{Type: "refund", Amount: Money{Cents: 100}, AccountID: 1, Date: NewDate(2026, 1, 1)},
			want: ErrInvalidType,
		},
		{
			name: "zero amount",
			txn:  Transaction{Type: TypeIncome, Amount: Money{Cents: 0}, AccountID: 1, Date: NewDate(2026, 1, 1)},
			want: ErrInvalidAmount,
		},
		{
			name: "negative amount",
			txn:  Transaction{Type: TypeIncome, Amount: Money{Cents: -100}, AccountID: 1, Date: NewDate(2026, 1, 1)},
			want: ErrInvalidAmount,
		},
		{
			name: "missing account",
			txn:  Transaction{Type: TypeIncome, Amount: Money{Cents: 100}, Date: NewDate(2026, 1, 1)},
			want: ErrMissingAccount,
		},
		{
			name: "missing date",
			txn:  Transaction{Type: TypeIncome, Amount: Money{Cents: 100}, AccountID: 1},
			want: ErrInvalidDate,
		},
		{
			name: "transfer without destination",
			txn:  Transaction{Type: TypeTransfer, Amount: Money{Cents: 100}, AccountID: 1, Date: NewDate(2026, 1, 1)},
			want: ErrMissingTransferTo,
		},
		{
			name: "transfer with category",
			txn: Transaction{
				Type: TypeTransfer, Amount: Money{Cents: 100}, AccountID: 1,
				ToAccountID: int64p(2), CategoryID: int64p(3), Date: NewDate(2026, 1, 1),
			},
			want: ErrCategoryOnTransfer,
		},
		{
			name: "recurring with bad interval",
			txn: Transaction{
				Type: TypeExpense, Amount: Money{Cents: 100}, AccountID: 1,
				Date: NewDate(2026, 1, 1), IsRecurring: true,
				Recurrence: &Recurrence{Interval: "fortnightly", NextDate: NewDate(2026, 2, 1)},
			},
			want: ErrInvalidInterval,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.txn.Validate(); err != tc.want {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestIntervalNext(t *testing.T) {
	cases := []struct {
		interval Interval
		from     Date
		want     Date
	}{
		{IntervalDaily, NewDate(2026, 2, 28), NewDate(2026, 3, 1)},
		{IntervalWeekly, NewDate(2026, 2, 1), NewDate(2026, 2, 8)},
		{IntervalMonthly, NewDate(2026, 2, 15), NewDate(2026, 3, 15)},
		{Interval("unknown"), NewDate(2026, 2, 15), NewDate(2026, 3, 15)}, // monthly default
	}
	for i, tc := range cases {
		got := tc.interval.Next(tc.from)
		if !got.Equal(tc.want.Time) {
			t.Fatalf("case %d: got %s, want %s", i, got.ISO(), tc.want.ISO())
		}
		if !got.After(tc.from.Time) {
			t.Fatalf("case %d: schedule advance must be strictly forward", i)
		}
	}
}

func TestMonthRange(t *testing.T) {
	first, last := MonthRange(2026, 2)
	if first.ISO() != "2026-02-01" || last.ISO() != "2026-02-28" {
		t.Fatalf("got %s..%s", first.ISO(), last.ISO())
	}
	_, leapLast := MonthRange(2024, 2)
	if leapLast.ISO() != "2024-02-29" {
		t.Fatalf("leap year: got %s", leapLast.ISO())
	}
}

func TestWeekRange(t *testing.T) {
	// 2026-08-31 is a Monday: window is Sunday 30th through Saturday Sep 5th.
	start, end := WeekRange(NewDate(2026, 8, 31))
	if start.ISO() != "2026-08-30" || end.ISO() != "2026-09-05" {
		t.Fatalf("got %s..%s", start.ISO(), end.ISO())
	}
	if start.Weekday() != time.Sunday || end.Weekday() != time.Saturday {
		t.Fatalf("window must run Sunday through Saturday")
	}
	// A Sunday is its own window start.
	start, _ = WeekRange(NewDate(2026, 8, 30))
	if start.ISO() != "2026-08-30" {
		t.Fatalf("sunday: got %s", start.ISO())
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-14")
	if err != nil || d.ISO() != "2026-02-14" {
		t.Fatalf("got %s, err=%v", d.ISO(), err)
	}
	if _, err := ParseDate("14/02/2026"); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}
}
