package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// TransactionMirror appends ledger records to a spreadsheet. Appending a
	// transaction id that is already mirrored is a no-op.
	TransactionMirror interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// SummaryWriter keeps one row per account with its latest snapshot.
	SummaryWriter interface {
		WriteAccountSummary(ctx context.Context, snap core.BalanceSnapshot) (rowRef string, err error)
	}

	Mirror interface {
		TransactionMirror
		SummaryWriter
	}
)
