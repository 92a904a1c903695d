package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
)

// Ledger is the read side the workers need.
type Ledger interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, accountID int64) ([]core.Transaction, error)
	ListAccountIDs(ctx context.Context) ([]int64, error)
	GetBalanceSnapshot(ctx context.Context, accountID int64) (core.BalanceSnapshot, error)
}

// MirrorWorker copies committed transactions and account summaries to a
// spreadsheet mirror.
type MirrorWorker struct {
	ledger Ledger
	mirror sheets.Mirror
}

func NewMirrorWorker(ledger Ledger, mirror sheets.Mirror) *MirrorWorker {
	return &MirrorWorker{ledger: ledger, mirror: mirror}
}

// HandleTransactionRecorded mirrors the transaction named by msg and the
// account's new summary. Returning an error asks for redelivery.
func (w *MirrorWorker) HandleTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"message_id", msg.MessageID,
		"account_id", msg.AccountID,
		"transaction_id", msg.TransactionID)

	tx, err := w.ledger.GetTransaction(ctx, msg.TransactionID)
	if errors.Is(err, core.ErrTransactionNotFound) {
		// Redelivery cannot make it appear; the event belongs to another ledger.
		slog.WarnContext(ctx, "Dropping event for unknown transaction",
			"message_id", msg.MessageID,
			"transaction_id", msg.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", msg.TransactionID, err)
	}
	if tx.AccountID != msg.AccountID {
		slog.WarnContext(ctx, "Dropping event with mismatched account",
			"message_id", msg.MessageID,
			"event_account_id", msg.AccountID,
			"stored_account_id", tx.AccountID)
		return nil
	}

	ref, err := w.mirror.AppendTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("mirror transaction %d: %w", tx.ID, err)
	}

	if err := w.syncSummary(ctx, tx.AccountID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"transaction_id", tx.ID,
		"account_id", tx.AccountID,
		"sheets_ref", ref)
	return nil
}

// Backfill mirrors every stored transaction and summary. The mirror skips
// rows it already holds, so this recovers from lost events.
func (w *MirrorWorker) Backfill(ctx context.Context) error {
	ids, err := w.ledger.ListAccountIDs(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	mirrored, failed := 0, 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		history, err := w.ledger.ListTransactions(ctx, id)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load history for backfill",
				applog.FieldOperation, applog.OpMirror, applog.FieldAccountID, id, applog.FieldError, err)
			failed++
			continue
		}
		for _, tx := range history {
			if _, err := w.mirror.AppendTransaction(ctx, tx); err != nil {
				slog.ErrorContext(ctx, "Failed to mirror transaction",
					applog.FieldOperation, applog.OpMirror, applog.FieldTransactionID, tx.ID, applog.FieldError, err)
				failed++
				continue
			}
			mirrored++
		}

		if err := w.syncSummary(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror account summary",
				applog.FieldOperation, applog.OpMirror, applog.FieldAccountID, id, applog.FieldError, err)
			failed++
		}
	}

	slog.InfoContext(ctx, "Mirror backfill completed",
		"accounts", len(ids),
		"transactions", mirrored,
		"errors", failed)
	return nil
}

// SyncSummaries rewrites every account's summary row.
func (w *MirrorWorker) SyncSummaries(ctx context.Context) error {
	ids, err := w.ledger.ListAccountIDs(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if err := w.syncSummary(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *MirrorWorker) syncSummary(ctx context.Context, accountID int64) error {
	snap, err := w.ledger.GetBalanceSnapshot(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load snapshot for account %d: %w", accountID, err)
	}
	if _, err := w.mirror.WriteAccountSummary(ctx, snap); err != nil {
		return fmt.Errorf("mirror summary for account %d: %w", accountID, err)
	}
	return nil
}
