// Package taskqueue is a Postgres-backed work queue for scheduled sweeps.
// Claims use FOR UPDATE SKIP LOCKED so concurrent workers never double-claim.
package taskqueue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskQueue struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *TaskQueue {
	return &TaskQueue{pool: pool}
}

func (q *TaskQueue) GetPool() *pgxpool.Pool {
	return q.pool
}

type ScheduleTaskInput struct {
	TaskType    TaskType
	Payload     interface{}
	Priority    int
	ScheduledAt *time.Time
	MaxRetries  int
}

type ScheduleTaskResult struct {
	ID  string
	Err error
}

func (q *TaskQueue) ScheduleTask(ctx context.Context, input ScheduleTaskInput) ScheduleTaskResult {
	payload, err := json.Marshal(input.Payload)
	if err != nil {
		return ScheduleTaskResult{Err: err}
	}

	maxRetries := 3
	if input.MaxRetries > 0 {
		maxRetries = input.MaxRetries
	}

	scheduledFor := time.Now()
	if input.ScheduledAt != nil {
		scheduledFor = *input.ScheduledAt
	}

	var id string
	err = q.pool.QueryRow(ctx, `
		INSERT INTO task_queue (task_type, payload, priority, scheduled_for, max_retries)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, string(input.TaskType), payload, input.Priority, scheduledFor, maxRetries).Scan(&id)
	if err != nil {
		return ScheduleTaskResult{Err: err}
	}
	return ScheduleTaskResult{ID: id}
}

type ClaimTasksInput struct {
	WorkerID  string
	TaskTypes []string
	MaxTasks  int
}

type ClaimTasksResult struct {
	Tasks []ClaimedTask
	Err   error
}

// ClaimTasks atomically claims up to MaxTasks due tasks for one worker.
func (q *TaskQueue) ClaimTasks(ctx context.Context, input ClaimTasksInput) ClaimTasksResult {
	rows, err := q.pool.Query(ctx, `
		UPDATE task_queue
		SET status = 'claimed', worker_id = $1, started_at = NOW(), updated_at = NOW()
		WHERE id IN (
			SELECT id FROM task_queue
			WHERE status = 'pending'
			  AND task_type = ANY($2)
			  AND scheduled_for <= NOW()
			ORDER BY priority DESC, scheduled_for
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, task_type, payload
	`, input.WorkerID, input.TaskTypes, input.MaxTasks)
	if err != nil {
		return ClaimTasksResult{Err: err}
	}
	defer rows.Close()

	tasks := make([]ClaimedTask, 0)
	for rows.Next() {
		var task ClaimedTask
		if err := rows.Scan(&task.ID, &task.TaskType, &task.Payload); err != nil {
			return ClaimTasksResult{Err: err}
		}
		tasks = append(tasks, task)
	}
	return ClaimTasksResult{Tasks: tasks, Err: rows.Err()}
}

func (q *TaskQueue) CompleteTask(ctx context.Context, taskID string, result interface{}) error {
	var resultJSON []byte
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		resultJSON = data
	}

	_, err := q.pool.Exec(ctx, `
		UPDATE task_queue
		SET status = 'completed', result = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, taskID, resultJSON)
	return err
}

// FailTask fails a task, re-queueing it with a delay while retries remain.
func (q *TaskQueue) FailTask(ctx context.Context, taskID, errorMessage string, shouldRetry bool) error {
	if shouldRetry {
		_, err := q.pool.Exec(ctx, `
			UPDATE task_queue
			SET status = CASE WHEN retry_count + 1 < max_retries THEN 'pending' ELSE 'failed' END,
			    retry_count = retry_count + 1,
			    scheduled_for = NOW() + INTERVAL '1 minute' * POWER(2, retry_count),
			    worker_id = NULL,
			    error_message = $2,
			    failed_at = CASE WHEN retry_count + 1 < max_retries THEN NULL ELSE NOW() END,
			    updated_at = NOW()
			WHERE id = $1
		`, taskID, errorMessage)
		return err
	}

	_, err := q.pool.Exec(ctx, `
		UPDATE task_queue
		SET status = 'failed', error_message = $2, failed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, taskID, errorMessage)
	return err
}

// ReleaseStaleTasks re-queues tasks whose worker claimed them but never
// finished, after the given age.
func (q *TaskQueue) ReleaseStaleTasks(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := q.pool.Exec(ctx, `
		UPDATE task_queue
		SET status = 'pending', worker_id = NULL, started_at = NULL, updated_at = NOW()
		WHERE status IN ('claimed', 'processing')
		  AND started_at < NOW() - $1::interval
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (q *TaskQueue) CleanupOldTasks(ctx context.Context, daysToKeep int) (int, error) {
	tag, err := q.pool.Exec(ctx, `
		DELETE FROM task_queue
		WHERE status IN ('completed', 'cancelled')
		  AND updated_at < NOW() - make_interval(days => $1)
	`, daysToKeep)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (q *TaskQueue) CancelTask(ctx context.Context, taskID string) error {
	_, err := q.pool.Exec(ctx, `
		UPDATE task_queue
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'claimed')
	`, taskID)
	return err
}

func (q *TaskQueue) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	err := q.pool.QueryRow(ctx, `
		SELECT id, task_type, payload, priority, status,
		       scheduled_for, started_at, completed_at, failed_at,
		       worker_id, retry_count, max_retries, error_message,
		       created_at, updated_at
		FROM task_queue
		WHERE id = $1
	`, taskID).Scan(
		&task.ID, &task.TaskType, &task.Payload, &task.Priority, &task.Status,
		&task.ScheduledFor, &task.StartedAt, &task.CompletedAt, &task.FailedAt,
		&task.WorkerID, &task.RetryCount, &task.MaxRetries, &task.ErrorMessage,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
