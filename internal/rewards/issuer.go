// Package rewards talks to the external reward system recorded at
// initialization. The backend only requests voucher grants; issuing and
// redeeming vouchers is the reward system's business.
package rewards

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tycoon-games/backend/internal/state"
)

// Issuer requests a reward voucher for a player.
type Issuer interface {
	IssueVoucher(ctx context.Context, playerID uuid.UUID, reason string) error
}

// HTTPIssuer calls the reward system over HTTP. The system's base address is
// read from contract state on every call, so re-initialization environments
// pick up the current address without a restart.
type HTTPIssuer struct {
	state  *state.Repository
	client *http.Client
}

// NewHTTPIssuer creates a voucher issuer with the given request timeout.
func NewHTTPIssuer(st *state.Repository, timeout time.Duration) *HTTPIssuer {
	return &HTTPIssuer{
		state:  st,
		client: &http.Client{Timeout: timeout},
	}
}

type voucherRequest struct {
	PlayerID string `json:"player_id"`
	Reason   string `json:"reason"`
}

// IssueVoucher posts a grant request to the reward system.
func (i *HTTPIssuer) IssueVoucher(ctx context.Context, playerID uuid.UUID, reason string) error {
	addr, ok, err := i.state.Get(ctx, state.KeyRewardSystem)
	if err != nil {
		return fmt.Errorf("resolve reward system: %w", err)
	}
	if !ok || addr == "" {
		return fmt.Errorf("reward system address not configured")
	}

	body, err := json.Marshal(voucherRequest{PlayerID: playerID.String(), Reason: reason})
	if err != nil {
		return fmt.Errorf("marshal voucher request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/vouchers", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("call reward system: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("reward system status: %d", resp.StatusCode)
	}
	return nil
}
