// Package memory provides an in-process storage adapter backed by a
// per-account lock table. It implements the same repository ports as the
// pgsql adapter, which makes the locking contract of the ledger service
// testable without a real datastore.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/openledger/ledger-engine/internal/apperrors"
	"github.com/openledger/ledger-engine/internal/core/domain"
	portsrepo "github.com/openledger/ledger-engine/internal/core/ports/repositories"
)

// Store holds accounts and transactions in maps, guarded by a store-wide
// RWMutex for reads plus a per-account binary semaphore for exclusive
// row-level locking across a unit of work.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]domain.Account
	transactions map[string]domain.Transaction
	locks        map[string]chan struct{}
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		transactions: make(map[string]domain.Transaction),
		locks:        make(map[string]chan struct{}),
	}
}

var (
	_ portsrepo.AccountRepository     = (*Store)(nil)
	_ portsrepo.TransactionRepository = (*Store)(nil)
	_ portsrepo.TxManager             = (*Store)(nil)
)

// memTx is the in-memory unit of work: the ordered set of held account locks
// plus writes staged until Commit.
type memTx struct {
	held               []string
	stagedAccounts     map[string]domain.Account
	stagedTransactions []domain.Transaction
	finished           bool
}

// Begin starts a new unit of work.
func (s *Store) Begin(ctx context.Context) (portsrepo.Tx, error) {
	return &memTx{stagedAccounts: make(map[string]domain.Account)}, nil
}

// Commit applies all staged writes at once and releases the held locks.
func (s *Store) Commit(ctx context.Context, tx portsrepo.Tx) error {
	mt, err := s.asMemTx(tx)
	if err != nil {
		return err
	}
	if mt.finished {
		return fmt.Errorf("unit of work already finished")
	}

	s.mu.Lock()
	for id, account := range mt.stagedAccounts {
		s.accounts[id] = account
	}
	for _, txn := range mt.stagedTransactions {
		s.transactions[txn.TransactionID] = txn
	}
	s.mu.Unlock()

	s.releaseLocks(mt)
	mt.finished = true
	return nil
}

// Rollback discards staged writes and releases the held locks. Calling it
// after Commit is a no-op so callers may defer it unconditionally.
func (s *Store) Rollback(ctx context.Context, tx portsrepo.Tx) error {
	mt, err := s.asMemTx(tx)
	if err != nil {
		return err
	}
	if mt.finished {
		return nil
	}
	s.releaseLocks(mt)
	mt.finished = true
	return nil
}

// SaveAccount persists a new account outside any unit of work.
func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.AccountID]; exists {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
	}
	s.accounts[account.AccountID] = account
	return nil
}

// FindAccountByID retrieves an account copy without locking.
func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &account, nil
}

// FindAccountsByIDsForUpdate acquires the per-account locks in sorted order,
// then returns copies of the locked accounts. A lock that cannot be acquired
// before ctx expires fails the whole call with ErrContention and releases
// everything taken so far.
func (s *Store) FindAccountsByIDsForUpdate(ctx context.Context, tx portsrepo.Tx, accountIDs []string) (map[string]*domain.Account, error) {
	mt, err := s.asMemTx(tx)
	if err != nil {
		return nil, err
	}

	sorted := append([]string(nil), accountIDs...)
	sort.Strings(sorted)

	for _, id := range sorted {
		lock := s.lockFor(id)
		select {
		case lock <- struct{}{}:
			mt.held = append(mt.held, id)
		case <-ctx.Done():
			s.releaseLocks(mt)
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrContention, id)
		}
	}

	result := make(map[string]*domain.Account, len(sorted))
	s.mu.RLock()
	var missing string
	for _, id := range sorted {
		account, ok := s.accounts[id]
		if !ok {
			missing = id
			break
		}
		copied := account
		result[id] = &copied
	}
	s.mu.RUnlock()

	if missing != "" {
		s.releaseLocks(mt)
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, missing)
	}
	return result, nil
}

// SaveAccountsInTx stages updated account states; nothing is visible to other
// requests until Commit.
func (s *Store) SaveAccountsInTx(ctx context.Context, tx portsrepo.Tx, accounts []*domain.Account) error {
	mt, err := s.asMemTx(tx)
	if err != nil {
		return err
	}
	for _, account := range accounts {
		mt.stagedAccounts[account.AccountID] = *account
	}
	return nil
}

// SaveTransactionInTx stages an immutable transaction record.
func (s *Store) SaveTransactionInTx(ctx context.Context, tx portsrepo.Tx, txn domain.Transaction) error {
	mt, err := s.asMemTx(tx)
	if err != nil {
		return err
	}
	mt.stagedTransactions = append(mt.stagedTransactions, txn)
	return nil
}

// FindTransactionByID retrieves a persisted transaction copy.
func (s *Store) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.transactions[transactionID]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
	}
	return &txn, nil
}

// lockFor returns the binary semaphore for an account, creating it on first use.
func (s *Store) lockFor(accountID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[accountID]
	if !ok {
		lock = make(chan struct{}, 1)
		s.locks[accountID] = lock
	}
	return lock
}

func (s *Store) releaseLocks(mt *memTx) {
	for _, id := range mt.held {
		s.mu.Lock()
		lock := s.locks[id]
		s.mu.Unlock()
		<-lock
	}
	mt.held = nil
}

func (s *Store) asMemTx(tx portsrepo.Tx) (*memTx, error) {
	mt, ok := tx.(*memTx)
	if !ok {
		return nil, fmt.Errorf("unexpected unit of work type %T", tx)
	}
	return mt, nil
}
