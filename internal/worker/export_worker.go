package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
)

// TransactionAppender is the sink the worker mirrors created transactions to.
type TransactionAppender interface {
	AppendTransaction(ctx context.Context, txn core.Transaction) error
}

// ExportWorker mirrors ledger transactions to an external sink as they are
// created. The sink is append-only: updates and deletes are logged and
// skipped, so the mirror is a journal of creations rather than a replica.
type ExportWorker struct {
	storage *storage.SQLiteRepository
	sink    TransactionAppender
}

func NewExportWorker(storage *storage.SQLiteRepository, sink TransactionAppender) *ExportWorker {
	return &ExportWorker{
		storage: storage,
		sink:    sink,
	}
}

// HandleEvent processes a single transaction event from AMQP.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"message_id", event.MessageID,
		"transaction_id", event.TransactionID,
		"action", event.Action)

	switch event.Action {
	case amqp.ActionCreate:
		return w.exportTransaction(ctx, event.TransactionID)
	case amqp.ActionUpdate, amqp.ActionDelete:
		slog.InfoContext(ctx, "Sink is append-only, skipping event",
			"transaction_id", event.TransactionID,
			"action", event.Action)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown event action, skipping",
			"transaction_id", event.TransactionID,
			"action", event.Action)
		return nil
	}
}

func (w *ExportWorker) exportTransaction(ctx context.Context, id int64) error {
	txn, err := w.storage.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between event and delivery; nothing left to mirror.
		slog.WarnContext(ctx, "Transaction gone before export", "transaction_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction %d: %w", id, err)
	}

	if err := w.sink.AppendTransaction(ctx, txn); err != nil {
		return fmt.Errorf("append transaction %d to sink: %w", id, err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"transaction_id", id,
		"amount_cents", txn.Amount.Cents,
		"type", txn.Type)

	return nil
}
