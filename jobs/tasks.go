package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskGLIntegrity verifies ledger balance and the single open period rule.
	TaskGLIntegrity = "gl:integrity"
	// TaskCostCentersSync mirrors the agency catalog into cost centers.
	TaskCostCentersSync = "costcenters:sync"
	// TaskIdempotencyCleanup purges expired Idempotency-Key rows.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// Cron specs used by the worker scheduler.
const (
	CronGLIntegrity        = "@hourly"
	CronCostCentersSync    = "0 2 * * *"
	CronIdempotencyCleanup = "30 3 * * *"
)

// IdempotencyCleanupPayload configures how long keys are retained.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewGLIntegrityTask constructs the integrity check task.
func NewGLIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskGLIntegrity, nil)
}

// NewCostCentersSyncTask constructs the agency sync task.
func NewCostCentersSyncTask() *asynq.Task {
	return asynq.NewTask(TaskCostCentersSync, nil)
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: int(retention.Hours())})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

// NewTaskByName builds a task with its default payload. ok is false for
// unknown names.
func NewTaskByName(name string) (*asynq.Task, bool, error) {
	switch name {
	case TaskGLIntegrity:
		return NewGLIntegrityTask(), true, nil
	case TaskCostCentersSync:
		return NewCostCentersSyncTask(), true, nil
	case TaskIdempotencyCleanup:
		task, err := NewIdempotencyCleanupTask(7 * 24 * time.Hour)
		return task, true, err
	}
	return nil, false, nil
}

// DefaultCron lists the recurring registrations of the worker.
func DefaultCron() ([]CronRegistration, error) {
	cleanup, err := NewIdempotencyCleanupTask(7 * 24 * time.Hour)
	if err != nil {
		return nil, err
	}
	return []CronRegistration{
		{Spec: CronGLIntegrity, Task: NewGLIntegrityTask()},
		{Spec: CronCostCentersSync, Task: NewCostCentersSyncTask()},
		{Spec: CronIdempotencyCleanup, Task: cleanup},
	}, nil
}
