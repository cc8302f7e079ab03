package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/ledger"
	jobmetrics "github.com/odyssey-erp/lending-backoffice/internal/jobs"
)

// ErrLedgerUnhealthy is returned when the integrity check finds violations.
var ErrLedgerUnhealthy = errors.New("gl integrity: ledger violates accounting invariants")

// IntegrityChecker produces the ledger health report.
type IntegrityChecker interface {
	CheckIntegrity(ctx context.Context) (ledger.IntegrityReport, error)
}

// GLIntegrityJob checks global balance, per entry balance and open periods.
type GLIntegrityJob struct {
	Checker IntegrityChecker
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewGLIntegrityJob initialises the integrity handler.
func NewGLIntegrityJob(checker IntegrityChecker, logger *slog.Logger, metrics *jobmetrics.Metrics) *GLIntegrityJob {
	return &GLIntegrityJob{Checker: checker, Logger: logger, Metrics: metrics}
}

// Handle runs the check. Violations are logged, counted and reported as a
// non-retryable failure so the run shows up as failed in the queue.
func (j *GLIntegrityJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Checker == nil {
		return errors.New("gl integrity: handler not configured")
	}
	tracker := j.Metrics.Track(TaskGLIntegrity)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	logger := loggerOrDefault(j.Logger).With(slog.String("job", TaskGLIntegrity))
	report, err := j.Checker.CheckIntegrity(ctx)
	if err != nil {
		logger.Error("integrity check failed", slog.Any("error", err))
		return err
	}
	if report.Healthy() {
		logger.Info("ledger healthy",
			slog.String("total_debit", report.TotalDebit.StringFixed(2)),
			slog.Int("open_periods", report.OpenPeriods),
			slog.Duration("duration", time.Since(start)),
		)
		return nil
	}

	for _, id := range report.UnbalancedEntries {
		logger.Warn("unbalanced journal entry", slog.Int64("entry_id", id))
	}
	j.Metrics.AddAnomalies("unbalanced_entry", len(report.UnbalancedEntries))
	if !report.TotalDebit.Equal(report.TotalCredit) {
		logger.Warn("trial balance out of balance",
			slog.String("total_debit", report.TotalDebit.StringFixed(2)),
			slog.String("total_credit", report.TotalCredit.StringFixed(2)),
		)
		j.Metrics.AddAnomalies("trial_balance", 1)
	}
	if report.OpenPeriods > 1 {
		logger.Warn("more than one open period", slog.Int("open_periods", report.OpenPeriods))
		j.Metrics.AddAnomalies("open_periods", 1)
	}
	return fmt.Errorf("%w: %d unbalanced entries: %w", ErrLedgerUnhealthy, len(report.UnbalancedEntries), asynq.SkipRetry)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
