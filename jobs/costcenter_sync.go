package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/costcenters"
	jobmetrics "github.com/odyssey-erp/lending-backoffice/internal/jobs"
)

// AgencySyncer mirrors agencies into cost centers.
type AgencySyncer interface {
	SyncWithAgencies(ctx context.Context) (costcenters.SyncResult, error)
}

// CostCenterSyncJob runs the nightly agency mirror.
type CostCenterSyncJob struct {
	Syncer  AgencySyncer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCostCenterSyncJob initialises the sync handler.
func NewCostCenterSyncJob(syncer AgencySyncer, logger *slog.Logger, metrics *jobmetrics.Metrics) *CostCenterSyncJob {
	return &CostCenterSyncJob{Syncer: syncer, Logger: logger, Metrics: metrics}
}

// Handle executes the sync.
func (j *CostCenterSyncJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Syncer == nil {
		return errors.New("cost center sync: handler not configured")
	}
	tracker := j.Metrics.Track(TaskCostCentersSync)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	logger := loggerOrDefault(j.Logger).With(slog.String("job", TaskCostCentersSync))
	result, err := j.Syncer.SyncWithAgencies(ctx)
	if err != nil {
		logger.Error("sync failed", slog.Any("error", err))
		return err
	}
	logger.Info("cost centers synced",
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("total", result.Total),
	)
	return nil
}
