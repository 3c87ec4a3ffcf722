package taskqueue

import (
	"encoding/json"
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusClaimed    TaskStatus = "claimed"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
	StatusCancelled  TaskStatus = "cancelled"
)

type TaskType string

const (
	TaskTypeCatalogCheck     TaskType = "catalog_check"
	TaskTypePricingRecompute TaskType = "pricing_recompute"
	TaskTypeFeedReconcile    TaskType = "feed_reconcile"
	TaskTypeRetryFailed      TaskType = "retry_failed"
	TaskTypeCleanup          TaskType = "cleanup"
)

type Task struct {
	ID           string          `db:"id"`
	TaskType     string          `db:"task_type"`
	Payload      json.RawMessage `db:"payload"`
	Priority     int             `db:"priority"`
	Status       TaskStatus      `db:"status"`
	ScheduledFor *time.Time      `db:"scheduled_for"`
	StartedAt    *time.Time      `db:"started_at"`
	CompletedAt  *time.Time      `db:"completed_at"`
	FailedAt     *time.Time      `db:"failed_at"`
	WorkerID     *string         `db:"worker_id"`
	RetryCount   int             `db:"retry_count"`
	MaxRetries   int             `db:"max_retries"`
	ErrorMessage *string         `db:"error_message"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

type ClaimedTask struct {
	ID       string          `db:"id"`
	TaskType string          `db:"task_type"`
	Payload  json.RawMessage `db:"payload"`
}

// SweepPayload targets one connection, empty meaning every active connection.
type SweepPayload struct {
	ConnectionRef string `json:"connectionRef,omitempty"`
}

// FeedReconcilePayload targets one feed job, or all pending jobs of a
// connection when FeedJobID is empty.
type FeedReconcilePayload struct {
	FeedJobID     string `json:"feedJobId,omitempty"`
	ConnectionRef string `json:"connectionRef,omitempty"`
}
