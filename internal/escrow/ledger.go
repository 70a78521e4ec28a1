package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx supported by both pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ledger is a Postgres-backed escrow ledger. Run inside the caller's
// transaction, a transfer is all-or-nothing with the enclosing operation.
type Ledger struct {
	db Querier
}

// NewLedger creates a ledger over a pool or transaction.
func NewLedger(db Querier) *Ledger {
	return &Ledger{db: db}
}

// Transfer moves amount from one account to another. The debit fails with
// ErrInsufficientFunds rather than driving a balance negative.
func (l *Ledger) Transfer(ctx context.Context, from, to string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	const debit = `UPDATE escrow_accounts SET balance = balance - $2, updated_at = NOW()
		WHERE account = $1 AND balance >= $2`
	tag, err := l.db.Exec(ctx, debit, from, amount)
	if err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}

	const credit = `INSERT INTO escrow_accounts (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = escrow_accounts.balance + EXCLUDED.balance, updated_at = NOW()`
	if _, err := l.db.Exec(ctx, credit, to, amount); err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	return nil
}

// Balance returns the current balance of an account (0 when absent).
func (l *Ledger) Balance(ctx context.Context, account string) (int64, error) {
	const q = `SELECT balance FROM escrow_accounts WHERE account = $1`
	var balance int64
	err := l.db.QueryRow(ctx, q, account).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", account, err)
	}
	return balance, nil
}

// Deposit credits an account directly. Used to fund player balances and to
// seed the holding account in dev environments.
func (l *Ledger) Deposit(ctx context.Context, account string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	const q = `INSERT INTO escrow_accounts (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = escrow_accounts.balance + EXCLUDED.balance, updated_at = NOW()`
	if _, err := l.db.Exec(ctx, q, account, amount); err != nil {
		return fmt.Errorf("deposit %s: %w", account, err)
	}
	return nil
}
