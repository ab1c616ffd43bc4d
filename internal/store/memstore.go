/**
 * @description
 * In-memory implementation of the Store interface with optional JSON snapshot
 * persistence. A naive read-whole-file / rewrite-whole-file pattern loses updates under
 * concurrent requests, so all mutation happens under one mutex against an in-memory
 * map. The snapshot is written from staged copies before the maps are touched: a
 * mutation that reports failure is never visible to readers, and served state never
 * runs ahead of durable state.
 *
 * The account-number index lives in an xsync.Map so that read-only resolution
 * (recipient confirmation, receipt pages) never takes the store mutex.
 */

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/zenithpay/ledger-service/internal/domain"
)

// MemoryStore keeps every account in memory and, when a snapshot path is configured,
// mirrors committed state to disk after each successful mutation.
type MemoryStore struct {
	mu           sync.Mutex
	accounts     map[string]*domain.Account
	references   map[string]struct{}
	numberIndex  *xsync.Map[string, string] // account number -> account id
	snapshotPath string                     // empty means memory-only
}

// NewMemoryStore returns an empty, memory-only store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:    make(map[string]*domain.Account),
		references:  make(map[string]struct{}),
		numberIndex: xsync.NewMap[string, string](),
	}
}

// NewSnapshotStore opens a store backed by a JSON snapshot file, loading existing state
// if the file is present. A missing file is a fresh store, not an error.
func NewSnapshotStore(path string) (*MemoryStore, error) {
	s := NewMemoryStore()
	s.snapshotPath = path

	accounts, err := loadSnapshot(path)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	for _, acct := range accounts {
		cp := acct.Clone()
		s.accounts[cp.ID] = cp
		s.numberIndex.Store(cp.AccountNumber, cp.ID)
		for _, rec := range cp.Transactions {
			s.references[rec.Reference] = struct{}{}
		}
	}
	return s, nil
}

func (s *MemoryStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct.Clone(), nil
}

func (s *MemoryStore) FindByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	id, ok := s.numberIndex.Load(accountNumber)
	if !ok {
		return nil, ErrAccountNotFound
	}
	return s.Get(ctx, id)
}

func (s *MemoryStore) Create(ctx context.Context, acct *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acct.ID]; exists {
		return ErrAccountExists
	}
	if _, taken := s.numberIndex.Load(acct.AccountNumber); taken {
		return ErrAccountNumberTaken
	}

	cp := acct.Clone()
	cp.Version = 1
	if err := s.persistLocked(cp); err != nil {
		return err
	}
	s.accounts[cp.ID] = cp
	s.numberIndex.Store(cp.AccountNumber, cp.ID)
	acct.Version = cp.Version
	return nil
}

// Commit validates every account's version and every new reference before applying
// anything, so a failure on any account leaves the whole store untouched.
func (s *MemoryStore) Commit(ctx context.Context, accounts ...*domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newRefs := make(map[string]struct{})
	for _, acct := range accounts {
		existing, ok := s.accounts[acct.ID]
		if !ok {
			return ErrAccountNotFound
		}
		if existing.Version != acct.Version {
			return ErrVersionConflict
		}

		known := make(map[string]struct{}, len(existing.Transactions))
		for _, rec := range existing.Transactions {
			known[rec.Reference] = struct{}{}
		}
		for _, rec := range acct.Transactions {
			if _, ok := known[rec.Reference]; ok {
				continue // pre-existing history entry
			}
			if _, dup := s.references[rec.Reference]; dup {
				return ErrDuplicateReference
			}
			newRefs[rec.Reference] = struct{}{}
		}
	}

	staged := make([]*domain.Account, 0, len(accounts))
	for _, acct := range accounts {
		cp := acct.Clone()
		cp.Version++
		staged = append(staged, cp)
	}
	if err := s.persistLocked(staged...); err != nil {
		return err
	}
	for i, cp := range staged {
		s.accounts[cp.ID] = cp
		accounts[i].Version = cp.Version
	}
	for ref := range newRefs {
		s.references[ref] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.references[reference]
	return ok, nil
}

func (s *MemoryStore) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	_, ok := s.numberIndex.Load(accountNumber)
	return ok, nil
}

// persistLocked writes the snapshot if persistence is configured, overlaying the staged
// accounts on current state. The caller applies the staged accounts to the maps only
// after this succeeds. Caller holds s.mu.
func (s *MemoryStore) persistLocked(staged ...*domain.Account) error {
	if s.snapshotPath == "" {
		return nil
	}
	replaced := make(map[string]struct{}, len(staged))
	for _, acct := range staged {
		replaced[acct.ID] = struct{}{}
	}
	accounts := make([]*domain.Account, 0, len(s.accounts)+len(staged))
	for id, acct := range s.accounts {
		if _, ok := replaced[id]; ok {
			continue
		}
		accounts = append(accounts, acct)
	}
	accounts = append(accounts, staged...)
	if err := writeSnapshot(s.snapshotPath, accounts); err != nil {
		return fmt.Errorf("write snapshot %s: %w", s.snapshotPath, err)
	}
	return nil
}
