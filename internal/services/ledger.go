package services

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
)

// Ledger orchestrates account, category and transaction operations across
// SQLite and AMQP. Validation happens here, before anything touches storage;
// event publishing happens after, and never fails the request.
type Ledger struct {
	storage *storage.SQLiteRepository
	events  *amqp.Client
}

func NewLedger(storage *storage.SQLiteRepository, events *amqp.Client) *Ledger {
	return &Ledger{
		storage: storage,
		events:  events,
	}
}

func (l *Ledger) CreateAccount(ctx context.Context, acc core.Account) (core.Account, error) {
	if err := acc.Validate(); err != nil {
		return core.Account{}, err
	}
	if acc.Currency == "" {
		acc.Currency = "EUR"
	}
	return l.storage.CreateAccount(ctx, acc)
}

func (l *Ledger) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	return l.storage.GetAccount(ctx, id)
}

func (l *Ledger) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return l.storage.ListAccounts(ctx)
}

// DeleteAccount removes an account. Accounts still referenced by transactions
// cannot be deleted; callers get ErrConflict and must delete or move the
// transactions first.
func (l *Ledger) DeleteAccount(ctx context.Context, id int64) error {
	return l.storage.DeleteAccount(ctx, id)
}

func (l *Ledger) CreateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}
	return l.storage.CreateCategory(ctx, cat)
}

func (l *Ledger) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return l.storage.GetCategory(ctx, id)
}

func (l *Ledger) ListCategories(ctx context.Context, ctype core.CategoryType) ([]core.Category, error) {
	return l.storage.ListCategories(ctx, ctype)
}

func (l *Ledger) UpdateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}
	return l.storage.UpdateCategory(ctx, cat)
}

// DeleteCategory removes a category. Transactions that referenced it keep
// their rows with the category reference nulled out.
func (l *Ledger) DeleteCategory(ctx context.Context, id int64) error {
	return l.storage.DeleteCategory(ctx, id)
}

// CreateTransaction validates, saves and applies the balance effect of a new
// transaction, then publishes a create event.
func (l *Ledger) CreateTransaction(ctx context.Context, txn core.Transaction) (core.Transaction, error) {
	if err := txn.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := l.storage.CreateTransaction(ctx, txn)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	l.publishEvent(ctx, created.ID, amqp.ActionCreate)
	return created, nil
}

// UpdateTransaction replaces transaction id with the given state. The old
// balance effect is reversed and the new one applied in the same database
// transaction.
func (l *Ledger) UpdateTransaction(ctx context.Context, id int64, txn core.Transaction) (core.Transaction, error) {
	txn.ID = id
	if err := txn.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated, err := l.storage.UpdateTransaction(ctx, txn)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}

	l.publishEvent(ctx, id, amqp.ActionUpdate)
	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
func (l *Ledger) DeleteTransaction(ctx context.Context, id int64) error {
	if err := l.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	l.publishEvent(ctx, id, amqp.ActionDelete)
	return nil
}

func (l *Ledger) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return l.storage.GetTransaction(ctx, id)
}

func (l *Ledger) ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]core.Transaction, int64, error) {
	return l.storage.ListTransactions(ctx, filter)
}

func (l *Ledger) ListRecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	return l.storage.ListRecentTransactions(ctx, limit)
}

func (l *Ledger) ListAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	return l.storage.ListAllTransactions(ctx)
}

// CreateBudget attaches a spending budget to an expense category.
func (l *Ledger) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	// Resolve the category first so a dangling reference surfaces as a clean
	// not-found instead of a constraint failure.
	if _, err := l.storage.GetCategory(ctx, b.CategoryID); err != nil {
		return core.Budget{}, err
	}
	return l.storage.CreateBudget(ctx, b)
}

func (l *Ledger) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return l.storage.ListBudgets(ctx)
}

func (l *Ledger) DeleteBudget(ctx context.Context, id int64) error {
	return l.storage.DeleteBudget(ctx, id)
}

func (l *Ledger) CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	return l.storage.CreateSavingsGoal(ctx, g)
}

func (l *Ledger) ListSavingsGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	return l.storage.ListSavingsGoals(ctx)
}

func (l *Ledger) UpdateSavingsGoal(ctx context.Context, id int64, g core.SavingsGoal) (core.SavingsGoal, error) {
	g.ID = id
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	if err := l.storage.UpdateSavingsGoal(ctx, g); err != nil {
		return core.SavingsGoal{}, err
	}
	return l.storage.GetSavingsGoal(ctx, id)
}

func (l *Ledger) DeleteSavingsGoal(ctx context.Context, id int64) error {
	return l.storage.DeleteSavingsGoal(ctx, id)
}

// VerifyBalances recomputes every account balance from the transaction rows
// and reports accounts whose stored balance drifted.
func (l *Ledger) VerifyBalances(ctx context.Context) ([]storage.BalanceDrift, error) {
	return l.storage.VerifyBalances(ctx)
}

func (l *Ledger) publishEvent(ctx context.Context, transactionID int64, action string) {
	if l.events == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping transaction event",
			"transaction_id", transactionID, "action", action)
		return
	}

	if err := l.events.PublishTransactionEvent(ctx, transactionID, action); err != nil {
		// Don't fail the request - the ledger write already succeeded.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", transactionID, "action", action, "error", err)
	}
}

// Close closes both storage and AMQP connections
func (l *Ledger) Close() error {
	var errs []error

	if l.storage != nil {
		if err := l.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if l.events != nil {
		if err := l.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger: %v", errs)
	}

	return nil
}
