/**
 * @description
 * PostgreSQL implementation of the Store interface. Accounts carry a `version` column
 * for optimistic concurrency: Commit updates each account with
 * `WHERE id = $1 AND version = $2` inside one transaction and rolls the whole unit back
 * if any row has moved, so a transfer's two legs are never observable half-applied.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: the PostgreSQL driver used across our services.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zenithpay/ledger-service/internal/domain"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS accounts (
	id                 TEXT PRIMARY KEY,
	account_number     TEXT NOT NULL UNIQUE,
	display_name       TEXT NOT NULL,
	credential         TEXT NOT NULL,
	account_type       TEXT NOT NULL,
	status             TEXT NOT NULL,
	tier               TEXT NOT NULL,
	balance            BIGINT NOT NULL CHECK (balance >= 0),
	daily_used         BIGINT NOT NULL DEFAULT 0,
	last_activity_date TEXT NOT NULL,
	version            BIGINT NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS transactions (
	id          UUID PRIMARY KEY,
	account_id  TEXT NOT NULL REFERENCES accounts(id),
	ts          TIMESTAMPTZ NOT NULL,
	description TEXT NOT NULL,
	direction   TEXT NOT NULL,
	amount      BIGINT NOT NULL CHECK (amount >= 0),
	reference   TEXT NOT NULL,
	status      TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS transactions_account_reference_idx
	ON transactions (account_id, reference);
CREATE INDEX IF NOT EXISTS transactions_account_ts_idx
	ON transactions (account_id, ts DESC);

CREATE TABLE IF NOT EXISTS ledger_references (
	reference TEXT PRIMARY KEY
);
`

// backfillReferencesSQL seeds ledger_references from pre-existing history, so schemas
// created before the side table keep their references reserved.
const backfillReferencesSQL = `
INSERT INTO ledger_references (reference)
SELECT DISTINCT reference FROM transactions
ON CONFLICT (reference) DO NOTHING
`

// PostgresStore is the production Store backed by a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the ledger tables and indexes if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	if _, err := s.db.Exec(ctx, backfillReferencesSQL); err != nil {
		return fmt.Errorf("backfill ledger references: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.getAccount(ctx, "id", accountID)
}

func (s *PostgresStore) FindByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	return s.getAccount(ctx, "account_number", accountNumber)
}

func (s *PostgresStore) getAccount(ctx context.Context, column, key string) (*domain.Account, error) {
	var acct domain.Account
	query := fmt.Sprintf(`
		SELECT id, account_number, display_name, credential, account_type, status, tier,
		       balance, daily_used, last_activity_date, version
		FROM accounts WHERE %s = $1`, column)
	err := s.db.QueryRow(ctx, query, key).Scan(
		&acct.ID, &acct.AccountNumber, &acct.DisplayName, &acct.Credential,
		&acct.AccountType, &acct.Status, &acct.Tier,
		&acct.Balance, &acct.DailyUsed, &acct.LastActivityDate, &acct.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, ts, description, direction, amount, reference, status
		FROM transactions WHERE account_id = $1 ORDER BY ts DESC`, acct.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rec domain.TransactionRecord
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Description, &rec.Direction,
			&rec.Amount, &rec.Reference, &rec.Status); err != nil {
			return nil, err
		}
		acct.Transactions = append(acct.Transactions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &acct, nil
}

func (s *PostgresStore) Create(ctx context.Context, acct *domain.Account) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO accounts (id, account_number, display_name, credential, account_type,
		                      status, tier, balance, daily_used, last_activity_date, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)`,
		acct.ID, acct.AccountNumber, acct.DisplayName, acct.Credential, acct.AccountType,
		acct.Status, acct.Tier, acct.Balance, acct.DailyUsed, acct.LastActivityDate,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "accounts_pkey" {
				return ErrAccountExists
			}
			return ErrAccountNumberTaken
		}
		return err
	}
	acct.Version = 1
	return nil
}

// Commit writes every passed account and its new history entries in one database
// transaction. Accounts are processed in id order so two opposing transfers cannot
// deadlock each other.
func (s *PostgresStore) Commit(ctx context.Context, accounts ...*domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	ordered := make([]*domain.Account, len(accounts))
	copy(ordered, accounts)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	claimed := make(map[string]struct{})
	for _, acct := range ordered {
		tag, err := tx.Exec(ctx, `
			UPDATE accounts
			SET display_name = $3, credential = $4, account_type = $5, status = $6,
			    tier = $7, balance = $8, daily_used = $9, last_activity_date = $10,
			    version = version + 1
			WHERE id = $1 AND version = $2`,
			acct.ID, acct.Version, acct.DisplayName, acct.Credential, acct.AccountType,
			acct.Status, acct.Tier, acct.Balance, acct.DailyUsed, acct.LastActivityDate,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, acct.ID,
			).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrAccountNotFound
			}
			return ErrVersionConflict
		}

		if err := s.insertNewRecords(ctx, tx, acct, claimed); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	for _, acct := range accounts {
		acct.Version++
	}
	return nil
}

// insertNewRecords persists the history entries the caller appended since its read.
// Each new reference is claimed by inserting into ledger_references inside the same
// transaction; the primary key there makes two concurrent commits racing on one
// reference serialize, with the loser surfacing ErrDuplicateReference. A transfer's
// shared reference is claimed once via the commit-unit claimed set.
func (s *PostgresStore) insertNewRecords(ctx context.Context, tx pgx.Tx, acct *domain.Account, claimed map[string]struct{}) error {
	known := make(map[string]struct{})
	rows, err := tx.Query(ctx,
		`SELECT reference FROM transactions WHERE account_id = $1`, acct.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			rows.Close()
			return err
		}
		known[ref] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, rec := range acct.Transactions {
		if _, ok := known[rec.Reference]; ok {
			continue
		}
		if _, ok := claimed[rec.Reference]; !ok {
			if _, err := tx.Exec(ctx,
				`INSERT INTO ledger_references (reference) VALUES ($1)`, rec.Reference,
			); err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "23505" {
					return ErrDuplicateReference
				}
				return err
			}
			claimed[rec.Reference] = struct{}{}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO transactions (id, account_id, ts, description, direction, amount, reference, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.ID, acct.ID, rec.Timestamp, rec.Description, rec.Direction,
			rec.Amount, rec.Reference, rec.Status,
		); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrDuplicateReference
			}
			return err
		}
	}
	return nil
}

func (s *PostgresStore) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_references WHERE reference = $1)`, reference,
	).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`, accountNumber,
	).Scan(&exists)
	return exists, err
}
