package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Store is a process-local ledger store with the same semantics as the
// SQLite repository. Every write takes the store lock, so each call is atomic.
type Store struct {
	mu       sync.Mutex
	nextAcct int64
	nextTx   int64
	accounts map[int64]*core.Account
	txs      map[int64][]core.Transaction
	now      func() time.Time
}

func New() *Store {
	return &Store{
		accounts: map[int64]*core.Account{},
		txs:      map[int64][]core.Transaction{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) CreateAccount(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAcct++
	s.accounts[s.nextAcct] = &core.Account{ID: s.nextAcct}
	return s.nextAcct, nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, core.ErrAccountNotFound
	}
	return *a, nil
}

func (s *Store) GetAccountField(_ context.Context, id int64, field core.AccountField) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return decimal.Zero, core.ErrAccountNotFound
	}
	v, ok := a.Get(field)
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown account field %d", field)
	}
	return v, nil
}

func (s *Store) SetAccountFields(_ context.Context, id int64, fields map[core.AccountField]decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.ErrAccountNotFound
	}
	next := *a
	for f, v := range fields {
		if !next.Set(f, v) {
			return fmt.Errorf("unknown account field %d", f)
		}
	}
	*a = next
	return nil
}

// AppendTransaction stores t and returns its id. The account must exist.
func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(t)
}

func (s *Store) appendLocked(t core.Transaction) (int64, error) {
	if _, ok := s.accounts[t.AccountID]; !ok {
		return 0, &core.StorageError{Op: "insert transaction", Err: fmt.Errorf("account %d does not exist", t.AccountID)}
	}
	if err := t.SpendingType.Validate(); err != nil {
		return 0, &core.StorageError{Op: "insert transaction", Err: err}
	}
	s.nextTx++
	t.ID = s.nextTx
	if t.Timestamp.IsZero() {
		t.Timestamp = s.now()
	}
	t.Timestamp = t.Timestamp.UTC()
	s.txs[t.AccountID] = append(s.txs[t.AccountID], t)
	return t.ID, nil
}

func (s *Store) ApplyTransaction(_ context.Context, t core.Transaction, agg core.Aggregates) (int64, core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[t.AccountID]
	if !ok {
		return 0, core.Account{}, core.ErrAccountNotFound
	}
	id, err := s.appendLocked(t)
	if err != nil {
		return 0, core.Account{}, err
	}
	a.Balance = a.Balance.Add(t.Amount)
	a.Totals = agg.Totals
	a.CurrentInvestments = agg.Investments
	return id, *a, nil
}

func (s *Store) SetAggregates(_ context.Context, id int64, agg core.Aggregates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.ErrAccountNotFound
	}
	a.Totals = agg.Totals
	a.CurrentInvestments = agg.Investments
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, history := range s.txs {
		for _, t := range history {
			if t.ID == id {
				return t, nil
			}
		}
	}
	return core.Transaction{}, core.ErrTransactionNotFound
}

// ListTransactions returns a copy of the account history, oldest first.
func (s *Store) ListTransactions(_ context.Context, accountID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs[accountID]...), nil
}

func (s *Store) ListRecentTransactions(_ context.Context, accountID int64, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.txs[accountID]
	out := make([]core.Transaction, 0, limit)
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

func (s *Store) ListAccountIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.accounts))
	for id := int64(1); id <= s.nextAcct; id++ {
		if _, ok := s.accounts[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }
