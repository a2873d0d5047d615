package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ubdirahman/loan-management-app/internal/domain/loan"
)

// OverdueSweepJob runs the 30-day overdue rule across every stored account.
// The same rule also fires whenever an account lists its loans, so the sweep
// exists for books nobody has opened in a while: their loans still flip and
// their overdue events still go out.
type OverdueSweepJob struct {
	loanService loan.Service
	logger      *slog.Logger
}

func NewOverdueSweepJob(loanSvc loan.Service, logger *slog.Logger) *OverdueSweepJob {
	if loanSvc == nil || logger == nil {
		panic("OverdueSweepJob dependencies cannot be nil")
	}
	return &OverdueSweepJob{
		loanService: loanSvc,
		logger:      logger.With("job", "OverdueSweep"),
	}
}

func (j *OverdueSweepJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting overdue sweep job.")

	flipped, err := j.loanService.SweepOverdue(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Overdue sweep job failed.", slog.Any("error", err))
		return fmt.Errorf("overdue sweep failed: %w", err)
	}

	j.logger.InfoContext(ctx, "Overdue sweep job finished.",
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("loans_flipped", flipped))
	return nil
}
