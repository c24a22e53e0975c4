package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
)

type fakeSink struct {
	appended []core.Transaction
	err      error
}

func (f *fakeSink) AppendTransaction(ctx context.Context, txn core.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, txn)
	return nil
}

func newWorkerFixture(t *testing.T) (*ExportWorker, *storage.SQLiteRepository, *fakeSink) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	sink := &fakeSink{}
	return NewExportWorker(repo, sink), repo, sink
}

func seedTransaction(t *testing.T, repo *storage.SQLiteRepository) core.Transaction {
	t.Helper()
	ctx := context.Background()
	acc, err := repo.CreateAccount(ctx, core.Account{
		Name: "Checking", Balance: core.Money{Cents: 0}, Currency: "EUR",
	})
	require.NoError(t, err)
	txn, err := repo.CreateTransaction(ctx, core.Transaction{
		Type:      core.TypeIncome,
		Amount:    core.Money{Cents: 12345},
		AccountID: acc.ID,
		Date:      core.NewDate(2026, 2, 1),
	})
	require.NoError(t, err)
	return txn
}

func TestHandleEventCreateAppends(t *testing.T) {
	w, repo, sink := newWorkerFixture(t)
	txn := seedTransaction(t, repo)

	err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(txn.ID, amqp.ActionCreate))
	require.NoError(t, err)
	require.Len(t, sink.appended, 1)
	assert.Equal(t, txn.ID, sink.appended[0].ID)
	assert.Equal(t, int64(12345), sink.appended[0].Amount.Cents)
}

func TestHandleEventSkipsUpdateAndDelete(t *testing.T) {
	w, repo, sink := newWorkerFixture(t)
	txn := seedTransaction(t, repo)

	for _, action := range []string{amqp.ActionUpdate, amqp.ActionDelete, "bogus"} {
		err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(txn.ID, action))
		require.NoError(t, err)
	}
	assert.Empty(t, sink.appended)
}

func TestHandleEventMissingTransaction(t *testing.T) {
	w, _, sink := newWorkerFixture(t)

	// A delete can race the create event; the worker must not requeue forever.
	err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(999, amqp.ActionCreate))
	require.NoError(t, err)
	assert.Empty(t, sink.appended)
}

func TestHandleEventSinkFailurePropagates(t *testing.T) {
	w, repo, sink := newWorkerFixture(t)
	txn := seedTransaction(t, repo)
	sink.err = errors.New("sheet unavailable")

	err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(txn.ID, amqp.ActionCreate))
	assert.Error(t, err)
}
