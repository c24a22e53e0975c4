package core

import (
	"errors"
	"strings"
	"time"
)

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
)

const (
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodWeekly  BudgetPeriod = "weekly"
)

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

type (
	TransactionType string
	Interval        string
	BudgetPeriod    string
	CategoryType    string

	// Date is a calendar day with no time-of-day semantics. The zero value
	// means "no date".
	Date struct {
		time.Time
	}

	Account struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Balance   Money     `json:"balance"`
		Currency  string    `json:"currency"`
		Icon      string    `json:"icon,omitempty"`
		Color     string    `json:"color,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	Category struct {
		ID        int64        `json:"id"`
		Name      string       `json:"name"`
		Type      CategoryType `json:"type"`
		Color     string       `json:"color"`
		Icon      string       `json:"icon,omitempty"`
		IsDefault bool         `json:"isDefault"`
		CreatedAt time.Time    `json:"createdAt"`
	}

	// Recurrence is the schedule pointer carried by a recurring transaction.
	// NextDate is the next occurrence still to be materialized.
	Recurrence struct {
		Interval Interval `json:"interval"`
		NextDate Date     `json:"nextDate"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		Description string          `json:"description"`
		CategoryID  *int64          `json:"categoryId"`
		AccountID   int64           `json:"accountId"`
		ToAccountID *int64          `json:"toAccountId"`
		Date        Date            `json:"transactionDate"`
		IsRecurring bool            `json:"isRecurring"`
		Recurrence  *Recurrence     `json:"recurrence"`
		Tags        []string        `json:"tags"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	Budget struct {
		ID         int64        `json:"id"`
		CategoryID int64        `json:"categoryId"`
		Amount     Money        `json:"amount"`
		Period     BudgetPeriod `json:"period"`
		StartDate  Date         `json:"startDate"`
		CreatedAt  time.Time    `json:"createdAt"`
	}

	SavingsGoal struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Target    Money     `json:"target"`
		Current   Money     `json:"current"`
		Deadline  *Date     `json:"deadline"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidInterval    = errors.New("invalid recurrence interval")
	ErrInvalidPeriod      = errors.New("invalid budget period")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyName          = errors.New("empty name")
	ErrMissingAccount     = errors.New("missing account")
	ErrMissingCategory    = errors.New("missing category")
	ErrMissingTransferTo  = errors.New("transfer requires a destination account")
	ErrCategoryOnTransfer = errors.New("transfers cannot carry a category")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// validationErrs are the sentinels that map to a caller mistake rather than
// an internal failure. Storage and transport layers must not add to this set.
var validationErrs = []error{
	ErrInvalidAmount,
	ErrInvalidType,
	ErrInvalidInterval,
	ErrInvalidPeriod,
	ErrInvalidDate,
	ErrEmptyName,
	ErrMissingAccount,
	ErrMissingCategory,
	ErrMissingTransferTo,
	ErrCategoryOnTransfer,
	ErrDescriptionTooLong,
}

// IsValidation reports whether err originates from input validation.
func IsValidation(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO returns the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.ISO() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthRange returns the first and last calendar day of a month.
func MonthRange(year, month int) (Date, Date) {
	first := NewDate(year, month, 1)
	last := Date{Time: time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)}
	return first, last
}

// WeekRange returns the Sunday-through-Saturday window containing d.
func WeekRange(d Date) (Date, Date) {
	offset := int(d.Weekday())
	start := Date{Time: d.AddDate(0, 0, -offset)}
	end := Date{Time: start.AddDate(0, 0, 6)}
	return start, end
}

// Next returns the occurrence after d: +1 day for daily, +7 days for weekly,
// +1 calendar month for monthly and any unknown interval. The result is
// always after d, so successive schedule advances are monotonic.
func (i Interval) Next(d Date) Date {
	switch i {
	case IntervalDaily:
		return Date{Time: d.AddDate(0, 0, 1)}
	case IntervalWeekly:
		return Date{Time: d.AddDate(0, 0, 7)}
	default:
		return Date{Time: d.AddDate(0, 1, 0)}
	}
}

func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

func (p BudgetPeriod) Valid() bool {
	return p == PeriodMonthly || p == PeriodWeekly
}

func (c CategoryType) Valid() bool {
	return c == CategoryIncome || c == CategoryExpense
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Validate checks the transaction against the ledger's input rules. The sign
// of the balance effect is never encoded in Amount, only in Type, so Amount
// must always be positive.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.AccountID == 0 {
		return ErrMissingAccount
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.Type == TypeTransfer {
		if t.ToAccountID == nil {
			return ErrMissingTransferTo
		}
		if t.CategoryID != nil {
			return ErrCategoryOnTransfer
		}
	}
	if t.IsRecurring && t.Recurrence != nil {
		switch t.Recurrence.Interval {
		case IntervalDaily, IntervalWeekly, IntervalMonthly:
		default:
			return ErrInvalidInterval
		}
		if t.Recurrence.NextDate.IsZero() {
			return ErrInvalidDate
		}
	}
	return nil
}

func (b Budget) Validate() error {
	if b.CategoryID == 0 {
		return ErrMissingCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	if b.StartDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return g.Target.Validate()
}
