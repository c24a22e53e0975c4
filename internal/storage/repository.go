package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteRepository is the single relational store behind the ledger. Every
// multi-step balance mutation runs inside one sql.Tx so concurrent requests
// never observe an intermediate balance.
type SQLiteRepository struct {
	db *sql.DB
}

const timeLayout = "2006-01-02 15:04:05"

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// foreign_keys must be set per connection, hence the DSN pragma.
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("Ledger schema ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

// migrateSchema brings the ledger schema up to date and reports the resulting
// version. It runs on its own connection so the repository's pool settings
// stay untouched.
func migrateSchema(dbPath string) (uint, error) {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return 0, fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nowStamp() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseStamp(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// applyEffects adds a transaction's signed balance deltas to its accounts.
// This is the only code path that touches account balances: create calls it
// with direction +1, delete with -1, and update with -1 on the old snapshot
// followed by +1 on the new one. All four call sites run inside the same
// sql.Tx as the row mutation they pair with.
func applyEffects(ctx context.Context, tx *sql.Tx, txn core.Transaction, direction int64) error {
	for _, ef := range txn.Effects(direction) {
		res, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance = balance + ?, updated_at = ? WHERE id = ?`,
			ef.Delta, nowStamp(), ef.AccountID)
		if err != nil {
			return fmt.Errorf("adjust balance of account %d: %w", ef.AccountID, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("adjust balance of account %d: %w", ef.AccountID, err)
		}
		if rows == 0 {
			return fmt.Errorf("account %d: %w", ef.AccountID, core.ErrNotFound)
		}
	}
	return nil
}

// checkAccountsExist fails with core.ErrNotFound before the first balance
// mutation so a bad reference never leaves partial state behind.
func checkAccountsExist(ctx context.Context, tx *sql.Tx, txn core.Transaction) error {
	ids := []int64{txn.AccountID}
	if txn.ToAccountID != nil {
		ids = append(ids, *txn.ToAccountID)
	}
	for _, id := range ids {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = ?)`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check account %d: %w", id, err)
		}
		if !exists {
			return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
		}
	}
	return nil
}

// BalanceDrift reports one account whose stored balance disagrees with the
// sum of signed effects of the transactions that reference it.
type BalanceDrift struct {
	AccountID int64 `json:"accountId"`
	Stored    int64 `json:"stored"`
	Derived   int64 `json:"derived"`
}

// VerifyBalances recomputes every balance from scratch and returns the
// accounts that drifted. An empty slice means the denormalized balances are
// consistent with the ledger.
func (r *SQLiteRepository) VerifyBalances(ctx context.Context) ([]BalanceDrift, error) {
	type accountRow struct {
		id       int64
		stored   int64
		starting int64
	}
	accRows, err := r.db.QueryContext(ctx,
		`SELECT id, balance, starting_balance FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("scan accounts: %w", err)
	}
	defer accRows.Close()
	var accounts []accountRow
	for accRows.Next() {
		var a accountRow
		if err := accRows.Scan(&a.id, &a.stored, &a.starting); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := accRows.Err(); err != nil {
		return nil, fmt.Errorf("scan accounts: %w", err)
	}

	// The derived balance is the creation-time starting balance plus the
	// signed effects of every currently-existing transaction.
	derived := make(map[int64]int64, len(accounts))
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, amount, account_id, to_account_id FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var txn core.Transaction
		var amount int64
		var toAccount sql.NullInt64
		if err := rows.Scan(&txn.ID, &txn.Type, &amount, &txn.AccountID, &toAccount); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txn.Amount = core.Money{Cents: amount}
		if toAccount.Valid {
			txn.ToAccountID = &toAccount.Int64
		}
		for _, ef := range txn.Effects(1) {
			derived[ef.AccountID] += ef.Delta
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}

	var drifts []BalanceDrift
	for _, acc := range accounts {
		want := acc.starting + derived[acc.id]
		if acc.stored != want {
			drifts = append(drifts, BalanceDrift{
				AccountID: acc.id,
				Stored:    acc.stored,
				Derived:   want,
			})
		}
	}
	return drifts, nil
}
