package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zenithpay/ledger-service/internal/domain"
	"github.com/zenithpay/ledger-service/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()
	s := store.NewMemoryStore()
	e := NewEngine(s, NewDailyLimitPolicy(LimitTable{
		domain.Tier1: 9_000_000,
		domain.Tier2: 20_000_000,
		domain.Tier3: 500_000_000,
	}), nil, nil)
	return e, s
}

func openTestAccount(t *testing.T, e *Engine, id, name string) *domain.Account {
	t.Helper()
	acct, err := e.OpenAccount(context.Background(), OpenAccountParams{
		AccountID:   id,
		DisplayName: name,
		Credential:  "1234",
	})
	if err != nil {
		t.Fatalf("OpenAccount(%s) returned error: %v", id, err)
	}
	return acct
}

func TestOpenAccountDefaults(t *testing.T) {
	e, _ := newTestEngine(t)
	acct := openTestAccount(t, e, "ada", "Ada Obi")

	if acct.Balance != 0 || acct.DailyUsed != 0 {
		t.Fatalf("new account must start empty, got balance=%d used=%d", acct.Balance, acct.DailyUsed)
	}
	if acct.Tier != domain.Tier1 {
		t.Fatalf("expected Tier 1 for new accounts, got %s", acct.Tier)
	}
	if acct.AccountType != "Savings" {
		t.Fatalf("expected default account type Savings, got %s", acct.AccountType)
	}
	if acct.Status != domain.StatusActive {
		t.Fatalf("expected active status, got %s", acct.Status)
	}
	if len(acct.AccountNumber) != 10 || acct.AccountNumber[0] != '2' {
		t.Fatalf("unexpected account number %q", acct.AccountNumber)
	}

	if _, err := e.OpenAccount(context.Background(), OpenAccountParams{AccountID: "ada", DisplayName: "Dup"}); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists for duplicate id, got %v", err)
	}
}

func TestDepositTransferWithdrawFlow(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	bola := openTestAccount(t, e, "bola", "Bola Eze")

	rec, err := e.Deposit(ctx, ada.ID, 1000)
	if err != nil {
		t.Fatalf("Deposit returned error: %v", err)
	}
	if rec.Direction != domain.Credit || rec.Amount != 1000 || rec.Description != "Cash Deposit" {
		t.Fatalf("unexpected deposit record: %+v", rec)
	}

	result, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 400)
	if err != nil {
		t.Fatalf("Transfer returned error: %v", err)
	}
	if result.RecipientName != "Bola Eze" {
		t.Fatalf("expected recipient name Bola Eze, got %s", result.RecipientName)
	}
	if result.SenderRecord.Reference != result.RecipientRecord.Reference {
		t.Fatal("transfer legs must share one reference")
	}
	if result.SenderRecord.Description != "Transfer to Bola Eze" {
		t.Fatalf("unexpected sender description %q", result.SenderRecord.Description)
	}
	if result.RecipientRecord.Description != "Received from Ada Obi" {
		t.Fatalf("unexpected recipient description %q", result.RecipientRecord.Description)
	}

	sender, _ := e.GetAccount(ctx, ada.ID)
	recipient, _ := e.GetAccount(ctx, bola.ID)
	if sender.Balance != 600 {
		t.Fatalf("expected sender balance 600, got %d", sender.Balance)
	}
	if sender.DailyUsed != 400 {
		t.Fatalf("expected daily used 400, got %d", sender.DailyUsed)
	}
	if recipient.Balance != 400 {
		t.Fatalf("expected recipient balance 400, got %d", recipient.Balance)
	}
	if recipient.DailyUsed != 0 {
		t.Fatalf("incoming transfer must not consume recipient allowance, got %d", recipient.DailyUsed)
	}

	wrec, err := e.Withdraw(ctx, bola.ID, 150)
	if err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	if wrec.Direction != domain.Debit || wrec.Description != "Cash Withdrawal" {
		t.Fatalf("unexpected withdrawal record: %+v", wrec)
	}
	recipient, _ = e.GetAccount(ctx, bola.ID)
	if recipient.Balance != 250 {
		t.Fatalf("expected balance 250 after withdrawal, got %d", recipient.Balance)
	}
}

func TestWithdrawInsufficientFundsLeavesAccountUntouched(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	if _, err := e.Deposit(ctx, ada.ID, 100); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Withdraw(ctx, ada.ID, 150); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	acct, _ := e.GetAccount(ctx, ada.ID)
	if acct.Balance != 100 {
		t.Fatalf("rejected withdrawal mutated balance: %d", acct.Balance)
	}
	if len(acct.Transactions) != 1 {
		t.Fatalf("rejected withdrawal left a history entry: %d records", len(acct.Transactions))
	}
}

func TestInvalidAmountsRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	bola := openTestAccount(t, e, "bola", "Bola Eze")

	for _, amount := range []int64{0, -50} {
		if _, err := e.Deposit(ctx, ada.ID, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Deposit(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := e.Withdraw(ctx, ada.ID, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Withdraw(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Transfer(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := e.PayBill(ctx, ada.ID, amount, domain.AirtimeBill{PhoneNumber: "08031234567"}); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("PayBill(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestSelfTransferRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	if _, err := e.Deposit(ctx, ada.ID, 1000); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Transfer(ctx, ada.ID, ada.AccountNumber, 100); !errors.Is(err, ErrSelfTransfer) {
		t.Fatalf("expected ErrSelfTransfer, got %v", err)
	}
	acct, _ := e.GetAccount(ctx, ada.ID)
	if acct.Balance != 1000 || acct.DailyUsed != 0 {
		t.Fatalf("rejected self-transfer mutated the account: balance=%d used=%d", acct.Balance, acct.DailyUsed)
	}
}

func TestTransferToUnknownRecipient(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	if _, err := e.Deposit(ctx, ada.ID, 1000); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Transfer(ctx, ada.ID, "2999999998", 100); !errors.Is(err, ErrRecipientNotFound) {
		t.Fatalf("expected ErrRecipientNotFound, got %v", err)
	}
}

func TestDailyLimitEnforcedOnTransfersOnly(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	bola := openTestAccount(t, e, "bola", "Bola Eze")
	if _, err := e.Deposit(ctx, ada.ID, 20_000_000); err != nil {
		t.Fatal(err)
	}

	// Tier 1 cap in this table is 9,000,000.
	if _, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 8_000_000); err != nil {
		t.Fatalf("first transfer should pass: %v", err)
	}
	if _, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 1_000_001); !errors.Is(err, ErrDailyLimitExceeded) {
		t.Fatalf("expected ErrDailyLimitExceeded, got %v", err)
	}

	// The rejection left the allowance untouched, so the exact remainder still fits.
	acct, _ := s.Get(ctx, ada.ID)
	if acct.DailyUsed != 8_000_000 {
		t.Fatalf("rejection changed daily usage: %d", acct.DailyUsed)
	}
	if _, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 1_000_000); err != nil {
		t.Fatalf("transfer up to the exact cap should pass: %v", err)
	}

	// Withdrawals and bill payments do not consume the allowance.
	if _, err := e.Withdraw(ctx, ada.ID, 500_000); err != nil {
		t.Fatalf("withdrawal must ignore the daily cap: %v", err)
	}
	if _, err := e.PayBill(ctx, ada.ID, 200_000, domain.AirtimeBill{PhoneNumber: "08031234567"}); err != nil {
		t.Fatalf("bill payment must ignore the daily cap: %v", err)
	}
	acct, _ = s.Get(ctx, ada.ID)
	if acct.DailyUsed != 9_000_000 {
		t.Fatalf("non-transfer debits changed daily usage: %d", acct.DailyUsed)
	}
}

func TestDailyLimitResetsOnNewDay(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	bola := openTestAccount(t, e, "bola", "Bola Eze")
	if _, err := e.Deposit(ctx, ada.ID, 20_000_000); err != nil {
		t.Fatal(err)
	}

	day1 := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return day1 }
	if _, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 9_000_000); err != nil {
		t.Fatalf("transfer at full cap should pass: %v", err)
	}
	if _, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 1); !errors.Is(err, ErrDailyLimitExceeded) {
		t.Fatalf("expected cap exhausted on day one, got %v", err)
	}

	used, limit, err := e.DailyAllowance(ctx, ada.ID)
	if err != nil || used != 9_000_000 || limit != 9_000_000 {
		t.Fatalf("unexpected allowance on day one: used=%d limit=%d err=%v", used, limit, err)
	}

	// Next day the allowance starts over.
	e.now = func() time.Time { return day1.Add(24 * time.Hour) }
	used, _, err = e.DailyAllowance(ctx, ada.ID)
	if err != nil || used != 0 {
		t.Fatalf("expected allowance reset on new day, used=%d err=%v", used, err)
	}
	if _, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 5_000_000); err != nil {
		t.Fatalf("transfer after rollover should pass: %v", err)
	}
	acct, _ := e.GetAccount(ctx, ada.ID)
	if acct.DailyUsed != 5_000_000 || acct.LastActivityDate != "2026-08-31" {
		t.Fatalf("rollover not persisted: used=%d date=%s", acct.DailyUsed, acct.LastActivityDate)
	}
}

func TestPayBill(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	if _, err := e.Deposit(ctx, ada.ID, 5000); err != nil {
		t.Fatal(err)
	}

	rec, err := e.PayBill(ctx, ada.ID, 1500, domain.DataBill{PhoneNumber: "08031234567", Bundle: "2GB Monthly"})
	if err != nil {
		t.Fatalf("PayBill returned error: %v", err)
	}
	if rec.Direction != domain.Debit || rec.Description != "Data bundle 2GB Monthly for 08031234567" {
		t.Fatalf("unexpected bill record: %+v", rec)
	}
	acct, _ := e.GetAccount(ctx, ada.ID)
	if acct.Balance != 3500 {
		t.Fatalf("expected balance 3500, got %d", acct.Balance)
	}

	if _, err := e.PayBill(ctx, ada.ID, 100, domain.AirtimeBill{}); !errors.Is(err, domain.ErrInvalidBillDetails) {
		t.Fatalf("expected ErrInvalidBillDetails, got %v", err)
	}
	if _, err := e.PayBill(ctx, ada.ID, 100, nil); !errors.Is(err, domain.ErrInvalidBillDetails) {
		t.Fatalf("expected ErrInvalidBillDetails for nil bill, got %v", err)
	}
	if _, err := e.PayBill(ctx, ada.ID, 10_000, domain.AirtimeBill{PhoneNumber: "08031234567"}); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestLookupReceipt(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	bola := openTestAccount(t, e, "bola", "Bola Eze")
	if _, err := e.Deposit(ctx, ada.ID, 1000); err != nil {
		t.Fatal(err)
	}
	result, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 400)
	if err != nil {
		t.Fatal(err)
	}

	senderSide, err := e.LookupReceipt(ctx, ada.ID, result.Reference)
	if err != nil {
		t.Fatalf("sender receipt lookup failed: %v", err)
	}
	if senderSide.Direction != domain.Debit || senderSide.Amount != 400 {
		t.Fatalf("unexpected sender receipt: %+v", senderSide)
	}
	recipientSide, err := e.LookupReceipt(ctx, bola.ID, result.Reference)
	if err != nil {
		t.Fatalf("recipient receipt lookup failed: %v", err)
	}
	if recipientSide.Direction != domain.Credit {
		t.Fatalf("unexpected recipient receipt: %+v", recipientSide)
	}

	// Lookup is idempotent and read-only.
	again, err := e.LookupReceipt(ctx, ada.ID, result.Reference)
	if err != nil || again.ID != senderSide.ID || again.Amount != senderSide.Amount {
		t.Fatalf("repeat lookup disagreed: %+v vs %+v (err=%v)", again, senderSide, err)
	}

	if _, err := e.LookupReceipt(ctx, ada.ID, "REF0000000000"); !errors.Is(err, ErrReceiptNotFound) {
		t.Fatalf("expected ErrReceiptNotFound, got %v", err)
	}
	if _, err := e.LookupReceipt(ctx, "ghost", result.Reference); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestResolveAccountName(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	bola := openTestAccount(t, e, "bola", "Bola Eze")

	name, err := e.ResolveAccountName(ctx, bola.AccountNumber)
	if err != nil || name != "Bola Eze" {
		t.Fatalf("expected Bola Eze, got %q (err=%v)", name, err)
	}
	if _, err := e.ResolveAccountName(ctx, "2999999998"); !errors.Is(err, ErrRecipientNotFound) {
		t.Fatalf("expected ErrRecipientNotFound, got %v", err)
	}
}

func TestReferencesUniqueAcrossOperations(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	bola := openTestAccount(t, e, "bola", "Bola Eze")
	if _, err := e.Deposit(ctx, ada.ID, 100_000); err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	record := func(ref string) {
		if seen[ref] {
			t.Fatalf("reference %s issued twice", ref)
		}
		seen[ref] = true
	}

	for i := 0; i < 10; i++ {
		rec, err := e.Deposit(ctx, ada.ID, 10)
		if err != nil {
			t.Fatal(err)
		}
		record(rec.Reference)
		result, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 10)
		if err != nil {
			t.Fatal(err)
		}
		record(result.Reference)
		wrec, err := e.Withdraw(ctx, bola.ID, 10)
		if err != nil {
			t.Fatal(err)
		}
		record(wrec.Reference)
	}
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetCommitAttempts(100)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	if _, err := e.Deposit(ctx, ada.ID, 1000); err != nil {
		t.Fatal(err)
	}

	const workers = 20
	const amount = 300 // only 3 of 20 can succeed

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.Withdraw(ctx, ada.ID, amount)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientFunds):
		default:
			t.Fatalf("unexpected withdrawal error: %v", err)
		}
	}
	if successes != 3 {
		t.Fatalf("expected exactly 3 successful withdrawals, got %d", successes)
	}
	acct, _ := e.GetAccount(ctx, ada.ID)
	if acct.Balance != 100 {
		t.Fatalf("expected final balance 100, got %d", acct.Balance)
	}
	if len(acct.Transactions) != 4 { // deposit + 3 withdrawals
		t.Fatalf("expected 4 history entries, got %d", len(acct.Transactions))
	}
}

func TestConcurrentOpposingTransfersConserveTotal(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetCommitAttempts(200)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	bola := openTestAccount(t, e, "bola", "Bola Eze")
	if _, err := e.Deposit(ctx, ada.ID, 10_000); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Deposit(ctx, bola.ID, 10_000); err != nil {
		t.Fatal(err)
	}

	const rounds = 10
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if _, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 7); err != nil {
				t.Errorf("ada->bola transfer failed: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if _, err := e.Transfer(ctx, bola.ID, ada.AccountNumber, 3); err != nil {
				t.Errorf("bola->ada transfer failed: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	adaFinal, _ := e.GetAccount(ctx, ada.ID)
	bolaFinal, _ := e.GetAccount(ctx, bola.ID)
	if adaFinal.Balance+bolaFinal.Balance != 20_000 {
		t.Fatalf("money not conserved: %d + %d", adaFinal.Balance, bolaFinal.Balance)
	}
	if adaFinal.Balance != 10_000-rounds*7+rounds*3 {
		t.Fatalf("unexpected ada balance %d", adaFinal.Balance)
	}
}

// flakyStore fails the first n commits with a version conflict, then delegates.
type flakyStore struct {
	store.Store
	failures int
}

func (s *flakyStore) Commit(ctx context.Context, accounts ...*domain.Account) error {
	if s.failures > 0 {
		s.failures--
		return store.ErrVersionConflict
	}
	return s.Store.Commit(ctx, accounts...)
}

func TestCommitConflictsAreRetried(t *testing.T) {
	flaky := &flakyStore{Store: store.NewMemoryStore(), failures: 3}
	e := NewEngine(flaky, nil, nil, nil)
	ctx := context.Background()
	acct := openTestAccount(t, e, "ada", "Ada Obi")

	if _, err := e.Deposit(ctx, acct.ID, 500); err != nil {
		t.Fatalf("expected deposit to survive 3 conflicts within a budget of 5, got %v", err)
	}
	got, _ := e.GetAccount(ctx, acct.ID)
	if got.Balance != 500 {
		t.Fatalf("expected balance 500 after retried deposit, got %d", got.Balance)
	}
}

func TestCommitConflictExhaustionSurfacesUnavailable(t *testing.T) {
	flaky := &flakyStore{Store: store.NewMemoryStore(), failures: 1000}
	e := NewEngine(flaky, nil, nil, nil)
	e.SetCommitAttempts(3)
	ctx := context.Background()
	acct := openTestAccount(t, e, "ada", "Ada Obi")

	if _, err := e.Deposit(ctx, acct.ID, 500); !errors.Is(err, ErrTemporarilyUnavailable) {
		t.Fatalf("expected ErrTemporarilyUnavailable, got %v", err)
	}
	got, _ := e.GetAccount(ctx, acct.ID)
	if got.Balance != 0 {
		t.Fatalf("failed deposit must not change the balance, got %d", got.Balance)
	}
}

// stubLimiter counts consumption per subject in memory.
type stubLimiter struct {
	counts map[string]int
	err    error
}

func (l *stubLimiter) Consume(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	if l.err != nil {
		return 0, 0, l.err
	}
	if l.counts == nil {
		l.counts = make(map[string]int)
	}
	l.counts[subject]++
	return l.counts[subject], 30, nil
}

func TestTransferRateLimit(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetRateLimiter(&stubLimiter{}, 2)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	bola := openTestAccount(t, e, "bola", "Bola Eze")
	if _, err := e.Deposit(ctx, ada.ID, 1000); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 10); err != nil {
			t.Fatalf("transfer %d within the limit failed: %v", i+1, err)
		}
	}
	if _, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 10); !errors.Is(err, ErrTemporarilyUnavailable) {
		t.Fatalf("expected ErrTemporarilyUnavailable over the limit, got %v", err)
	}

	// The rejected transfer moved no money.
	acct, _ := e.GetAccount(ctx, ada.ID)
	if acct.Balance != 980 {
		t.Fatalf("rate-limited transfer mutated the balance: %d", acct.Balance)
	}
}

func TestTransferRateLimiterFailureIsOpen(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetRateLimiter(&stubLimiter{err: errors.New("redis down")}, 1)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	bola := openTestAccount(t, e, "bola", "Bola Eze")
	if _, err := e.Deposit(ctx, ada.ID, 1000); err != nil {
		t.Fatal(err)
	}

	// A broken limiter must not block transfers.
	for i := 0; i < 3; i++ {
		if _, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 10); err != nil {
			t.Fatalf("transfer blocked by unavailable limiter: %v", err)
		}
	}
}

func TestVerifyCredential(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")

	ok, err := e.VerifyCredential(ctx, ada.ID, "1234")
	if err != nil || !ok {
		t.Fatalf("expected credential to match, ok=%v err=%v", ok, err)
	}
	ok, err = e.VerifyCredential(ctx, ada.ID, "4321")
	if err != nil || ok {
		t.Fatalf("expected credential mismatch, ok=%v err=%v", ok, err)
	}
	if _, err := e.VerifyCredential(ctx, "ghost", "1234"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestGetAccountOmitsCredential(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")

	got, err := e.GetAccount(ctx, ada.ID)
	if err != nil {
		t.Fatalf("GetAccount returned error: %v", err)
	}
	if got.Credential != "" {
		t.Fatalf("GetAccount exposed the credential: %q", got.Credential)
	}

	// The stored credential is untouched and still verifiable.
	stored, _ := s.Get(ctx, ada.ID)
	if stored.Credential != "1234" {
		t.Fatalf("stored credential changed: %q", stored.Credential)
	}
	ok, err := e.VerifyCredential(ctx, ada.ID, "1234")
	if err != nil || !ok {
		t.Fatalf("expected credential to still verify, ok=%v err=%v", ok, err)
	}
}

func TestGetAccountSummary(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	ada := openTestAccount(t, e, "ada", "Ada Obi")
	bola := openTestAccount(t, e, "bola", "Bola Eze")

	if _, err := e.Deposit(ctx, ada.ID, 1000); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Transfer(ctx, ada.ID, bola.AccountNumber, 300); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Withdraw(ctx, ada.ID, 200); err != nil {
		t.Fatal(err)
	}

	summary, err := e.GetAccountSummary(ctx, ada.ID)
	if err != nil {
		t.Fatalf("GetAccountSummary returned error: %v", err)
	}
	if summary.TotalIn != 1000 || summary.TotalOut != 500 || summary.Count != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
