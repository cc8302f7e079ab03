package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/costcenters"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/ledger"
	jobmetrics "github.com/odyssey-erp/lending-backoffice/internal/jobs"
)

type stubChecker struct {
	report ledger.IntegrityReport
	err    error
}

func (s stubChecker) CheckIntegrity(context.Context) (ledger.IntegrityReport, error) {
	return s.report, s.err
}

type stubSyncer struct {
	calls int
}

func (s *stubSyncer) SyncWithAgencies(context.Context) (costcenters.SyncResult, error) {
	s.calls++
	return costcenters.SyncResult{Created: 1, Total: 3}, nil
}

type stubCleaner struct {
	retention time.Duration
}

func (s *stubCleaner) Cleanup(_ context.Context, olderThan time.Duration) error {
	s.retention = olderThan
	return nil
}

func TestGLIntegrityHealthyLedger(t *testing.T) {
	job := NewGLIntegrityJob(stubChecker{report: ledger.IntegrityReport{
		TotalDebit:  decimal.NewFromInt(500),
		TotalCredit: decimal.NewFromInt(500),
		OpenPeriods: 1,
	}}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, job.Handle(context.Background(), NewGLIntegrityTask()))
}

func TestGLIntegrityReportsViolations(t *testing.T) {
	job := NewGLIntegrityJob(stubChecker{report: ledger.IntegrityReport{
		TotalDebit:        decimal.NewFromInt(500),
		TotalCredit:       decimal.NewFromInt(450),
		UnbalancedEntries: []int64{7},
		OpenPeriods:       2,
	}}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), NewGLIntegrityTask())
	require.ErrorIs(t, err, ErrLedgerUnhealthy)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestGLIntegrityPropagatesCheckerError(t *testing.T) {
	boom := errors.New("db down")
	job := NewGLIntegrityJob(stubChecker{err: boom}, nil, nil)
	require.ErrorIs(t, job.Handle(context.Background(), NewGLIntegrityTask()), boom)
}

func TestCostCenterSyncCallsService(t *testing.T) {
	syncer := &stubSyncer{}
	job := NewCostCenterSyncJob(syncer, nil, nil)
	require.NoError(t, job.Handle(context.Background(), NewCostCentersSyncTask()))
	require.Equal(t, 1, syncer.calls)
}

func TestIdempotencyCleanupUsesPayloadRetention(t *testing.T) {
	cleaner := &stubCleaner{}
	job := NewIdempotencyCleanupJob(cleaner, nil, nil)
	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 48*time.Hour, cleaner.retention)

	require.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, []byte("{"))), asynq.SkipRetry)
}

func TestNewTaskByName(t *testing.T) {
	for _, name := range []string{TaskGLIntegrity, TaskCostCentersSync, TaskIdempotencyCleanup} {
		task, ok, err := NewTaskByName(name)
		require.NoError(t, err)
		require.True(t, ok, name)
		require.Equal(t, name, task.Type())
	}
	_, ok, err := NewTaskByName("mail:send")
	require.NoError(t, err)
	require.False(t, ok)

	cron, err := DefaultCron()
	require.NoError(t, err)
	require.Len(t, cron, 3)
}

func TestHealthWithoutInspector(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(nil, nil).health(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats QueueStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, QueueDefault, stats.Queue)
}
