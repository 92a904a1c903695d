package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

var _ ports.Mirror = (*Store)(nil)

// Store is an in-process mirror used when no spreadsheet is configured.
type Store struct {
	mu        sync.Mutex
	txs       []core.Transaction
	txIndex   map[int64]int
	summaries map[int64]core.BalanceSnapshot
}

func New() *Store {
	return &Store{
		txIndex:   map[int64]int{},
		summaries: map[int64]core.BalanceSnapshot{},
	}
}

// AppendTransaction stores tx once and returns a synthetic row reference.
func (s *Store) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.txIndex[tx.ID]; ok {
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	s.txs = append(s.txs, tx)
	s.txIndex[tx.ID] = len(s.txs) - 1
	return fmt.Sprintf("mem:%d", len(s.txs)), nil
}

func (s *Store) WriteAccountSummary(_ context.Context, snap core.BalanceSnapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[snap.AccountID] = snap
	return fmt.Sprintf("mem:account:%d", snap.AccountID), nil
}

// Transactions returns the mirrored rows in append order.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs...)
}

func (s *Store) Summary(accountID int64) (core.BalanceSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.summaries[accountID]
	return snap, ok
}
