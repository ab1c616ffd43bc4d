/**
 * @description
 * This file defines the core domain models for the ledger-service: customer accounts
 * and the immutable transaction history attached to them.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit (kobo), which avoids
 *   floating-point inaccuracies with financial data. No float arithmetic is allowed
 *   anywhere balances or limits are computed.
 * - `Version` is a concurrency stamp owned by the store. The engine never sets it; it
 *   reads an account, mutates a detached copy, and commits against the version it read.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus is the lifecycle state of an account. Accounts are never deleted;
// closure is a status change.
type AccountStatus string

const (
	StatusActive    AccountStatus = "Active"
	StatusSuspended AccountStatus = "Suspended"
	StatusClosed    AccountStatus = "Closed"
)

// Tier classifies a customer for daily outgoing-transfer limits.
type Tier string

const (
	Tier1 Tier = "Tier 1"
	Tier2 Tier = "Tier 2"
	Tier3 Tier = "Tier 3"
)

// Direction marks which side of the ledger a transaction record sits on.
type Direction string

const (
	Credit Direction = "Credit"
	Debit  Direction = "Debit"
)

// TransactionStatus is modeled as an enumeration even though the engine currently only
// writes Success, so that Failed/Pending records can be introduced without a schema change.
type TransactionStatus string

const (
	TxnSuccess TransactionStatus = "Success"
	TxnPending TransactionStatus = "Pending"
	TxnFailed  TransactionStatus = "Failed"
)

// TransactionRecord is one entry in an account's history. Entries are append-only and
// their Reference is immutable once written; both legs of a transfer share one Reference.
type TransactionRecord struct {
	ID          uuid.UUID         `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Description string            `json:"description"`
	Direction   Direction         `json:"direction"`
	Amount      int64             `json:"amount"` // in kobo, always >= 0
	Reference   string            `json:"reference"`
	Status      TransactionStatus `json:"status"`
}

// Account is the persisted record for one customer. ID and AccountNumber are immutable
// after creation. Transactions are ordered most-recent-first.
type Account struct {
	ID               string              `json:"id"`
	AccountNumber    string              `json:"account_number"`
	DisplayName      string              `json:"display_name"`
	Credential       string              `json:"credential"` // opaque secret; compared, never exposed to callers
	AccountType      string              `json:"account_type"`
	Status           AccountStatus       `json:"status"`
	Tier             Tier                `json:"tier"`
	Balance          int64               `json:"balance"` // in kobo, invariant: >= 0
	DailyUsed        int64               `json:"daily_used"`
	LastActivityDate string              `json:"last_activity_date"` // calendar day DailyUsed was last reset for
	Transactions     []TransactionRecord `json:"transactions"`
	Version          int64               `json:"version"`
}

// Clone returns a deep copy so callers can mutate freely without aliasing store state.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Transactions = make([]TransactionRecord, len(a.Transactions))
	copy(cp.Transactions, a.Transactions)
	return &cp
}

// PushRecord prepends a record, keeping the history most-recent-first for statement
// views.
func (a *Account) PushRecord(rec TransactionRecord) {
	a.Transactions = append([]TransactionRecord{rec}, a.Transactions...)
}

// FindRecord returns the history entry carrying the given reference, if any.
func (a *Account) FindRecord(reference string) (TransactionRecord, bool) {
	for _, rec := range a.Transactions {
		if rec.Reference == reference {
			return rec, true
		}
	}
	return TransactionRecord{}, false
}

// DateKey renders the calendar day used for daily-limit bookkeeping.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
