// Domain errors surfaced by the ledger engine. All of them describe business-rule
// rejections that leave every involved account unchanged; store I/O failures propagate
// separately as wrapped errors so callers can tell "not allowed" from "try again".

package ledger

import "errors"

var (
	// ErrInvalidAmount rejects non-positive amounts before any store access.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientFunds rejects a debit that would take the balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDailyLimitExceeded rejects an outbound transfer over the tier's daily cap.
	ErrDailyLimitExceeded = errors.New("daily transfer limit exceeded")

	// ErrRecipientNotFound means the recipient account number resolves to nothing.
	ErrRecipientNotFound = errors.New("recipient account not found")

	// ErrSelfTransfer rejects a transfer addressed to the sender's own account.
	ErrSelfTransfer = errors.New("cannot transfer to own account")

	// ErrAccountNotFound means the authenticated identity no longer resolves to a
	// record; the presentation layer should treat the session as stale.
	ErrAccountNotFound = errors.New("account not found")

	// ErrReceiptNotFound means no history entry carries the requested reference.
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrAccountExists rejects registration with an id already in use.
	ErrAccountExists = errors.New("account id already registered")

	// ErrTemporarilyUnavailable is returned after the engine exhausts its internal
	// retry budget on concurrent-modification conflicts, or when an operation is
	// rate limited. The caller may simply try again.
	ErrTemporarilyUnavailable = errors.New("operation temporarily unavailable")
)
