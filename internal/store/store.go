/**
 * @description
 * This file defines the `Store` interface, the contract for the keyed account record
 * store the ledger engine runs against. Defining an interface decouples the engine from
 * the persistence backend (PostgreSQL in production, an in-memory snapshot store for
 * single-node deployments and tests).
 *
 * Concurrency contract:
 * - Reads return detached copies; mutating a returned account never touches store state.
 * - Commit applies every passed account atomically: all of them or none of them, and no
 *   other reader may observe a partial application. Each account carries the version it
 *   was read at; if any version has moved, Commit fails with ErrVersionConflict and the
 *   caller retries its whole operation from the read.
 */

package store

import (
	"context"
	"errors"

	"github.com/zenithpay/ledger-service/internal/domain"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account id already registered")
	ErrAccountNumberTaken = errors.New("account number already in use")
	ErrVersionConflict    = errors.New("account modified concurrently")
	ErrDuplicateReference = errors.New("duplicate transaction reference")
)

// Store is the keyed persistent record of accounts.
type Store interface {
	// Get returns a detached copy of the account, or ErrAccountNotFound.
	Get(ctx context.Context, accountID string) (*domain.Account, error)

	// FindByAccountNumber resolves the secondary lookup used for transfer addressing.
	FindByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error)

	// Create registers a brand-new account. Fails with ErrAccountExists or
	// ErrAccountNumberTaken; on success the account's Version is initialized.
	Create(ctx context.Context, acct *domain.Account) error

	// Commit durably writes the passed accounts as one atomic unit, advancing each
	// account's Version. Fails with ErrVersionConflict on concurrent modification and
	// ErrDuplicateReference if a new history entry reuses a reference already issued
	// outside this commit.
	Commit(ctx context.Context, accounts ...*domain.Account) error

	// ReferenceExists reports whether any recorded transaction carries the reference.
	ReferenceExists(ctx context.Context, reference string) (bool, error)

	// AccountNumberExists reports whether an account number is already assigned.
	AccountNumberExists(ctx context.Context, accountNumber string) (bool, error)
}
