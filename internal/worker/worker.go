package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tycoon-games/backend/internal/rewards"
	"github.com/tycoon-games/backend/pkg/queue"
)

// VoucherProcessor drains the voucher queue and forwards each grant to the
// reward system.
type VoucherProcessor struct {
	issuer rewards.Issuer
	queue  *queue.Queue
	logger *zap.Logger
}

// NewVoucherProcessor creates a voucher grant processor.
func NewVoucherProcessor(issuer rewards.Issuer, q *queue.Queue, logger *zap.Logger) *VoucherProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoucherProcessor{issuer: issuer, queue: q, logger: logger}
}

// Process executes one voucher grant job.
func (p *VoucherProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeVoucherGrant {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.VoucherGrantPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := p.issuer.IssueVoucher(ctx, payload.PlayerID, payload.Reason); err != nil {
		return fmt.Errorf("issue voucher: %w", err)
	}
	p.logger.Info("voucher granted", zap.String("player_id", payload.PlayerID.String()), zap.String("reason", payload.Reason))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *VoucherProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("voucher worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
