package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/feed"
	"github.com/channelsync/sync-service/internal/jobs"
	"github.com/channelsync/sync-service/internal/syncer"
	"github.com/channelsync/sync-service/internal/taskqueue"
)

// RegisterSyncHandlers wires every known task type to its handler.
func RegisterSyncHandlers(w *Worker, orc *syncer.Orchestrator, rec *feed.Reconciler, queue *taskqueue.TaskQueue, cleanup jobs.CleanupConfig) {
	w.RegisterHandler(taskqueue.TaskTypeCatalogCheck, NewSweepHandler(orc, orc.CheckSweep))
	w.RegisterHandler(taskqueue.TaskTypePricingRecompute, NewSweepHandler(orc, orc.RepriceSweep))
	w.RegisterHandler(taskqueue.TaskTypeRetryFailed, NewSweepHandler(orc, orc.RetrySweep))
	w.RegisterHandler(taskqueue.TaskTypeFeedReconcile, NewFeedReconcileHandler(rec))
	w.RegisterHandler(taskqueue.TaskTypeCleanup, NewCleanupHandler(queue, cleanup))
}

// NewSweepHandler runs one sweep, against a single connection when the
// payload names one and across all active connections otherwise. Partial
// sweeps complete the task: failed items carry their own error state and
// are picked up again by the retry sweep.
func NewSweepHandler(orc *syncer.Orchestrator, sweep syncer.SweepFunc) Handler {
	return func(ctx context.Context, payload []byte) (interface{}, error) {
		var req taskqueue.SweepPayload
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, fmt.Errorf("failed to unmarshal sweep payload: %w", err)
			}
		}

		if req.ConnectionRef != "" {
			conn, err := database.GetConnection(ctx, req.ConnectionRef)
			if err != nil {
				return nil, fmt.Errorf("failed to load connection %s: %w", req.ConnectionRef, err)
			}
			if conn == nil {
				return nil, fmt.Errorf("unknown connection %s", req.ConnectionRef)
			}
			return sweep(ctx, conn)
		}

		return orc.RunAll(ctx, sweep, 0)
	}
}

func NewFeedReconcileHandler(rec *feed.Reconciler) Handler {
	return func(ctx context.Context, payload []byte) (interface{}, error) {
		var req taskqueue.FeedReconcilePayload
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, fmt.Errorf("failed to unmarshal reconcile payload: %w", err)
			}
		}

		if req.FeedJobID != "" {
			job, err := rec.Reconcile(ctx, req.FeedJobID)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"feedJobId": job.ID,
				"status":    job.ProcessingStatus,
			}, nil
		}

		settled, err := rec.ReconcilePending(ctx, req.ConnectionRef, 50)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"settled": len(settled)}, nil
	}
}

func NewCleanupHandler(queue *taskqueue.TaskQueue, cfg jobs.CleanupConfig) Handler {
	return func(ctx context.Context, payload []byte) (interface{}, error) {
		auditRows, err := jobs.CleanupAuditLog(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("audit cleanup: %w", err)
		}

		feedRows, err := jobs.CleanupFeedJobs(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("feed job cleanup: %w", err)
		}

		tasks, err := queue.CleanupOldTasks(ctx, 7)
		if err != nil {
			return nil, fmt.Errorf("task cleanup: %w", err)
		}

		return map[string]int{
			"auditRows": auditRows,
			"feedJobs":  feedRows,
			"tasks":     tasks,
		}, nil
	}
}
