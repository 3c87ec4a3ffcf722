package sweepers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/channelsync/sync-service/internal/taskqueue"
)

// TaskQueueSweeper periodically releases tasks stranded by dead workers.
type TaskQueueSweeper struct {
	queue      *taskqueue.TaskQueue
	logger     *zerolog.Logger
	interval   time.Duration
	staleAfter time.Duration
	stopChan   chan struct{}
}

func NewTaskQueueSweeper(queue *taskqueue.TaskQueue, logger *zerolog.Logger, interval, staleAfter time.Duration) *TaskQueueSweeper {
	return &TaskQueueSweeper{
		queue:      queue,
		logger:     logger,
		interval:   interval,
		staleAfter: staleAfter,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the periodic recovery sweep
func (s *TaskQueueSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("stale_after", s.staleAfter).
		Msg("Starting task queue sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Task queue sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Task queue sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if err := s.RecoverOrphanedTasks(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to recover orphaned tasks")
			}
		}
	}
}

// Stop signals the sweeper to stop
func (s *TaskQueueSweeper) Stop() {
	close(s.stopChan)
}

// RecoverOrphanedTasks re-queues claimed tasks whose worker never finished.
func (s *TaskQueueSweeper) RecoverOrphanedTasks(ctx context.Context) error {
	s.logger.Debug().Msg("Running orphaned task recovery")

	released, err := s.queue.ReleaseStaleTasks(ctx, s.staleAfter)
	if err != nil {
		return err
	}

	if released > 0 {
		s.logger.Info().
			Int("released", released).
			Msg("Recovered orphaned tasks")
	}

	return nil
}
