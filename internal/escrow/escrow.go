// Package escrow moves stake amounts between the contract's holding balance
// and player balances. The ledger is a single shared pool: per-game claims
// are tracked by each game's total_staked, not by per-game sub-accounts.
package escrow

import (
	"errors"

	"github.com/google/uuid"
)

// HoldingAccount is the contract's aggregate escrow holding balance.
const HoldingAccount = "contract:holding"

var (
	// ErrInsufficientFunds means the source account cannot cover the transfer.
	ErrInsufficientFunds = errors.New("insufficient escrow balance")
	// ErrInvalidAmount means the transfer amount is not positive.
	ErrInvalidAmount = errors.New("transfer amount must be positive")
)

// PlayerAccount returns the ledger account name for a player.
func PlayerAccount(id uuid.UUID) string {
	return "player:" + id.String()
}
