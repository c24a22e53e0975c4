package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
)

// RecurringProcessor materializes due recurring transaction definitions into
// concrete ledger instances. Each invocation advances every due definition by
// at most one occurrence; definitions that are several periods behind catch up
// gradually across invocations instead of flooding the ledger.
type RecurringProcessor struct {
	storage *storage.SQLiteRepository
	events  *amqp.Client

	mu sync.Mutex
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, events *amqp.Client) *RecurringProcessor {
	return &RecurringProcessor{
		storage: storage,
		events:  events,
	}
}

// Process materializes every recurring definition whose next date is on or
// before now, one occurrence each, and returns how many instances were
// created.
func (p *RecurringProcessor) Process(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	// Serialize invocations within this process; concurrent processes are
	// handled by the conditional claim in storage.
	p.mu.Lock()
	defer p.mu.Unlock()

	defs, err := p.storage.ListRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring definitions: %w", err)
	}

	today := core.DateOf(now)
	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_definitions", len(defs),
		"processing_date", today.ISO())

	created := 0
	for _, def := range defs {
		if def.Recurrence == nil {
			slog.WarnContext(ctx, "Recurring transaction has no schedule, skipping", "id", def.ID)
			continue
		}
		if def.Recurrence.NextDate.IsZero() || def.Recurrence.NextDate.After(today.Time) {
			continue
		}

		instance := instanceOf(def)
		next := def.Recurrence.Interval.Next(def.Recurrence.NextDate)

		id, claimed, err := p.storage.MaterializeRecurring(ctx, def, instance, next)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize recurring transaction",
				"definition_id", def.ID,
				"error", err)
			continue
		}
		if !claimed {
			slog.InfoContext(ctx, "Recurring occurrence already claimed elsewhere",
				"definition_id", def.ID,
				"next_date", def.Recurrence.NextDate.ISO())
			continue
		}

		created++
		slog.InfoContext(ctx, "Created transaction from recurring definition",
			"definition_id", def.ID,
			"instance_id", id,
			"occurrence_date", instance.Date.ISO(),
			"amount_cents", instance.Amount.Cents,
			"interval", def.Recurrence.Interval)

		if p.events != nil {
			if err := p.events.PublishTransactionEvent(ctx, id, amqp.ActionCreate); err != nil {
				slog.ErrorContext(ctx, "Failed to publish transaction event",
					"transaction_id", id, "error", err)
			}
		}
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"created", created,
		"total_checked", len(defs))

	return created, nil
}

// instanceOf builds the concrete transaction for one occurrence of a
// definition. The instance is dated at the scheduled occurrence, not at
// processing time, and carries no recurrence of its own.
func instanceOf(def core.Transaction) core.Transaction {
	return core.Transaction{
		Type:        def.Type,
		Amount:      def.Amount,
		Description: def.Description,
		CategoryID:  def.CategoryID,
		AccountID:   def.AccountID,
		ToAccountID: def.ToAccountID,
		Date:        def.Recurrence.NextDate,
		Tags:        def.Tags,
	}
}
