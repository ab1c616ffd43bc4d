/**
 * @description
 * This file contains the core business logic for the ledger-service. The `Engine`
 * struct orchestrates all money movement: deposits, withdrawals, transfers, bill
 * payments, receipt lookup, and account resolution, coordinating the account store,
 * the daily limit policy, the reference generator, and the event producer.
 *
 * Key properties:
 * - Every mutating operation is a bounded optimistic-retry loop: read the account(s),
 *   validate, mutate detached copies, commit against the versions that were read. A
 *   version conflict retries the whole operation from the read; exhausting the budget
 *   surfaces ErrTemporarilyUnavailable. Rejections never mutate anything.
 * - A transfer commits both accounts as one atomic unit carrying one shared reference.
 * - Events are published strictly after commit and never fail an operation.
 */

package ledger

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenithpay/ledger-service/internal/domain"
	"github.com/zenithpay/ledger-service/internal/store"
	"github.com/zenithpay/ledger-service/pkg/events"
)

const defaultCommitAttempts = 5

// Engine provides the ledger operations exposed to the presentation layer. Callers
// supply pre-authenticated account identifiers; authentication is out of scope here.
type Engine struct {
	store              store.Store
	policy             *DailyLimitPolicy
	refs               *ReferenceGenerator
	producer           events.Publisher
	limiter            RateLimiter
	logger             *zap.Logger
	commitAttempts     int
	transfersPerMinute int

	now func() time.Time
}

// NewEngine creates a ledger engine. A nil policy uses the default tier table, a nil
// producer disables event publishing, and a nil logger is replaced with a no-op.
func NewEngine(s store.Store, policy *DailyLimitPolicy, producer events.Publisher, logger *zap.Logger) *Engine {
	if policy == nil {
		policy = NewDailyLimitPolicy(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:          s,
		policy:         policy,
		refs:           NewReferenceGenerator(s),
		producer:       producer,
		logger:         logger,
		commitAttempts: defaultCommitAttempts,
		now:            time.Now,
	}
}

// SetCommitAttempts overrides the internal retry budget for version conflicts.
func (e *Engine) SetCommitAttempts(n int) {
	if n > 0 {
		e.commitAttempts = n
	}
}

// SetRateLimiter installs an optional transfer rate limiter.
func (e *Engine) SetRateLimiter(l RateLimiter, transfersPerMinute int) {
	e.limiter = l
	e.transfersPerMinute = transfersPerMinute
}

// OpenAccountParams carries registration input. AccountType defaults to "Savings".
type OpenAccountParams struct {
	AccountID   string
	DisplayName string
	Credential  string
	AccountType string
}

// OpenAccount registers a new account: unique 10-digit account number, lowest tier,
// zero balance, empty history. The account id is immutable afterwards.
func (e *Engine) OpenAccount(ctx context.Context, p OpenAccountParams) (*domain.Account, error) {
	id := strings.TrimSpace(p.AccountID)
	if id == "" {
		return nil, errors.New("account id must not be empty")
	}
	accountType := strings.TrimSpace(p.AccountType)
	if accountType == "" {
		accountType = "Savings"
	}

	for attempt := 0; attempt < e.commitAttempts; attempt++ {
		number, err := e.refs.NextAccountNumber(ctx)
		if err != nil {
			return nil, err
		}
		acct := &domain.Account{
			ID:               id,
			AccountNumber:    number,
			DisplayName:      p.DisplayName,
			Credential:       p.Credential,
			AccountType:      accountType,
			Status:           domain.StatusActive,
			Tier:             domain.Tier1,
			Balance:          0,
			DailyUsed:        0,
			LastActivityDate: domain.DateKey(e.now()),
			Transactions:     []domain.TransactionRecord{},
		}
		err = e.store.Create(ctx, acct)
		switch {
		case err == nil:
			e.logger.Info("account opened",
				zap.String("account_id", acct.ID),
				zap.String("account_number", acct.AccountNumber))
			return acct, nil
		case errors.Is(err, store.ErrAccountExists):
			return nil, ErrAccountExists
		case errors.Is(err, store.ErrAccountNumberTaken):
			continue // lost the race on the number; draw another
		default:
			return nil, fmt.Errorf("create account %s: %w", id, err)
		}
	}
	return nil, ErrTemporarilyUnavailable
}

// Deposit increases the balance and appends a Credit record.
func (e *Engine) Deposit(ctx context.Context, accountID string, amount int64) (*domain.TransactionRecord, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return e.mutateAccount(ctx, accountID, "transaction.deposit.completed",
		func(acct *domain.Account, ref string) (domain.TransactionRecord, error) {
			rec := e.newRecord("Cash Deposit", domain.Credit, amount, ref)
			acct.Balance += amount
			acct.PushRecord(rec)
			return rec, nil
		})
}

// Withdraw decreases the balance and appends a Debit record. The balance check runs
// against the freshly read state on every retry, so the non-negative invariant holds
// under concurrent withdrawals.
func (e *Engine) Withdraw(ctx context.Context, accountID string, amount int64) (*domain.TransactionRecord, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return e.mutateAccount(ctx, accountID, "transaction.withdrawal.completed",
		func(acct *domain.Account, ref string) (domain.TransactionRecord, error) {
			if acct.Balance < amount {
				return domain.TransactionRecord{}, ErrInsufficientFunds
			}
			rec := e.newRecord("Cash Withdrawal", domain.Debit, amount, ref)
			acct.Balance -= amount
			acct.PushRecord(rec)
			return rec, nil
		})
}

// PayBill debits the balance for a bill payment. Bill payments are not counted against
// the daily transfer cap.
func (e *Engine) PayBill(ctx context.Context, accountID string, amount int64, bill domain.BillDetails) (*domain.TransactionRecord, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if bill == nil {
		return nil, domain.ErrInvalidBillDetails
	}
	if err := bill.Validate(); err != nil {
		return nil, err
	}
	return e.mutateAccount(ctx, accountID, "transaction.billpayment.completed",
		func(acct *domain.Account, ref string) (domain.TransactionRecord, error) {
			if acct.Balance < amount {
				return domain.TransactionRecord{}, ErrInsufficientFunds
			}
			rec := e.newRecord(bill.Description(), domain.Debit, amount, ref)
			acct.Balance -= amount
			acct.PushRecord(rec)
			return rec, nil
		})
}

// TransferResult reports a committed transfer. Both records share one reference.
type TransferResult struct {
	Reference       string
	RecipientName   string
	SenderRecord    domain.TransactionRecord
	RecipientRecord domain.TransactionRecord
}

// Transfer moves money between two accounts as one atomic unit: daily-limit check,
// balance check, recipient resolution by account number, self-transfer rejection, then
// debit + credit committed together with one shared reference. Only transfers consume
// the sender's daily allowance.
func (e *Engine) Transfer(ctx context.Context, senderID, recipientAccountNumber string, amount int64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := e.allowTransfer(ctx, senderID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < e.commitAttempts; attempt++ {
		sender, err := e.store.Get(ctx, senderID)
		if err != nil {
			if errors.Is(err, store.ErrAccountNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, fmt.Errorf("read sender %s: %w", senderID, err)
		}

		today := domain.DateKey(e.now())
		eval := e.policy.Evaluate(sender, amount, today)
		if !eval.Allowed {
			return nil, ErrDailyLimitExceeded
		}
		if sender.Balance < amount {
			return nil, ErrInsufficientFunds
		}

		recipient, err := e.store.FindByAccountNumber(ctx, recipientAccountNumber)
		if err != nil {
			if errors.Is(err, store.ErrAccountNotFound) {
				return nil, ErrRecipientNotFound
			}
			return nil, fmt.Errorf("resolve recipient %s: %w", recipientAccountNumber, err)
		}
		if recipient.ID == sender.ID {
			return nil, ErrSelfTransfer
		}

		ref, err := e.refs.NextReference(ctx)
		if err != nil {
			return nil, err
		}
		senderRec := e.newRecord("Transfer to "+recipient.DisplayName, domain.Debit, amount, ref)
		recipientRec := e.newRecord("Received from "+sender.DisplayName, domain.Credit, amount, ref)

		sender.Balance -= amount
		sender.DailyUsed = eval.UsedToday + amount
		sender.LastActivityDate = today
		sender.PushRecord(senderRec)

		recipient.Balance += amount
		recipient.PushRecord(recipientRec)

		err = e.store.Commit(ctx, sender, recipient)
		switch {
		case err == nil:
			e.logger.Info("transfer committed",
				zap.String("sender_id", sender.ID),
				zap.String("recipient_id", recipient.ID),
				zap.String("reference", ref),
				zap.Int64("amount", amount))
			e.publish(ctx, "transaction.transfer.debited", sender.ID, senderRec)
			e.publish(ctx, "transaction.transfer.credited", recipient.ID, recipientRec)
			return &TransferResult{
				Reference:       ref,
				RecipientName:   recipient.DisplayName,
				SenderRecord:    senderRec,
				RecipientRecord: recipientRec,
			}, nil
		case errors.Is(err, store.ErrVersionConflict), errors.Is(err, store.ErrDuplicateReference):
			e.logger.Debug("transfer commit retry",
				zap.String("sender_id", senderID),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		default:
			return nil, fmt.Errorf("commit transfer %s: %w", ref, err)
		}
	}
	return nil, ErrTemporarilyUnavailable
}

// LookupReceipt returns the history entry carrying the reference for the given
// account. Read-only; calling it twice returns identical data.
func (e *Engine) LookupReceipt(ctx context.Context, accountID, reference string) (*domain.TransactionRecord, error) {
	acct, err := e.store.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("read account %s: %w", accountID, err)
	}
	rec, ok := acct.FindRecord(reference)
	if !ok {
		return nil, ErrReceiptNotFound
	}
	return &rec, nil
}

// ResolveAccountName returns the display name behind an account number, so a sender
// can confirm the recipient before submitting a transfer.
func (e *Engine) ResolveAccountName(ctx context.Context, accountNumber string) (string, error) {
	acct, err := e.store.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return "", ErrRecipientNotFound
		}
		return "", fmt.Errorf("resolve account number %s: %w", accountNumber, err)
	}
	return acct.DisplayName, nil
}

// GetAccount returns a detached copy of the account for display purposes, with the
// credential cleared. VerifyCredential is the only path that reads it.
func (e *Engine) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	acct, err := e.store.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("read account %s: %w", accountID, err)
	}
	acct.Credential = ""
	return acct, nil
}

// DailyAllowance reports the sender's usage and cap for today, applying the conceptual
// day rollover without persisting it.
func (e *Engine) DailyAllowance(ctx context.Context, accountID string) (used, limit int64, err error) {
	acct, err := e.GetAccount(ctx, accountID)
	if err != nil {
		return 0, 0, err
	}
	eval := e.policy.Evaluate(acct, 0, domain.DateKey(e.now()))
	return eval.UsedToday, eval.Limit, nil
}

// AccountSummary aggregates an account's history for the analytics view.
type AccountSummary struct {
	TotalIn  int64
	TotalOut int64
	Count    int
}

// GetAccountSummary totals inflow and outflow over the full history.
func (e *Engine) GetAccountSummary(ctx context.Context, accountID string) (*AccountSummary, error) {
	acct, err := e.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	summary := &AccountSummary{Count: len(acct.Transactions)}
	for _, rec := range acct.Transactions {
		switch rec.Direction {
		case domain.Credit:
			summary.TotalIn += rec.Amount
		case domain.Debit:
			summary.TotalOut += rec.Amount
		}
	}
	return summary, nil
}

// VerifyCredential compares the stored credential in constant time. The credential is
// never returned to callers.
func (e *Engine) VerifyCredential(ctx context.Context, accountID, candidate string) (bool, error) {
	acct, err := e.store.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return false, ErrAccountNotFound
		}
		return false, fmt.Errorf("read account %s: %w", accountID, err)
	}
	return subtle.ConstantTimeCompare([]byte(acct.Credential), []byte(candidate)) == 1, nil
}

// mutateAccount runs the optimistic read-validate-mutate-commit loop for operations
// touching a single account. The mutate callback sees a detached copy and a fresh
// unique reference; returning an error rejects the operation without side effects.
func (e *Engine) mutateAccount(ctx context.Context, accountID, routingKey string, mutate func(*domain.Account, string) (domain.TransactionRecord, error)) (*domain.TransactionRecord, error) {
	for attempt := 0; attempt < e.commitAttempts; attempt++ {
		acct, err := e.store.Get(ctx, accountID)
		if err != nil {
			if errors.Is(err, store.ErrAccountNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, fmt.Errorf("read account %s: %w", accountID, err)
		}

		ref, err := e.refs.NextReference(ctx)
		if err != nil {
			return nil, err
		}
		rec, err := mutate(acct, ref)
		if err != nil {
			return nil, err
		}

		err = e.store.Commit(ctx, acct)
		switch {
		case err == nil:
			e.publish(ctx, routingKey, acct.ID, rec)
			return &rec, nil
		case errors.Is(err, store.ErrVersionConflict), errors.Is(err, store.ErrDuplicateReference):
			e.logger.Debug("commit retry",
				zap.String("account_id", accountID),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		default:
			return nil, fmt.Errorf("commit account %s: %w", accountID, err)
		}
	}
	return nil, ErrTemporarilyUnavailable
}

func (e *Engine) newRecord(description string, direction domain.Direction, amount int64, reference string) domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:          uuid.New(),
		Timestamp:   e.now(),
		Description: description,
		Direction:   direction,
		Amount:      amount,
		Reference:   reference,
		Status:      domain.TxnSuccess,
	}
}

func (e *Engine) allowTransfer(ctx context.Context, senderID string) error {
	if e.limiter == nil || e.transfersPerMinute <= 0 {
		return nil
	}
	count, retryAfter, err := e.limiter.Consume(ctx, "transfer", senderID, e.transfersPerMinute, time.Minute)
	if err != nil {
		// Limiting is best effort; an unreachable limiter must not block money movement.
		e.logger.Warn("rate limiter unavailable; allowing transfer", zap.Error(err))
		return nil
	}
	if count > e.transfersPerMinute {
		e.logger.Info("transfer rate limited",
			zap.String("account_id", senderID),
			zap.Int("retry_after_s", retryAfter))
		return ErrTemporarilyUnavailable
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, routingKey, accountID string, rec domain.TransactionRecord) {
	if e.producer == nil {
		return
	}
	event := events.TransactionEvent{
		EventID:     uuid.New(),
		AccountID:   accountID,
		Reference:   rec.Reference,
		Direction:   string(rec.Direction),
		Amount:      rec.Amount,
		Description: rec.Description,
		OccurredAt:  rec.Timestamp,
	}
	if err := e.producer.PublishTransactionEvent(ctx, routingKey, event); err != nil {
		e.logger.Warn("event publish failed",
			zap.String("routing_key", routingKey),
			zap.String("reference", rec.Reference),
			zap.Error(err))
	}
}
