package syncer

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/channelsync/sync-service/internal/database"
)

// SweepFunc is one per-connection sweep operation.
type SweepFunc func(ctx context.Context, conn *database.Connection) (*Summary, error)

// RunAll runs a sweep across every active connection, a bounded number of
// connections in parallel. Connections never share items, so the only
// shared resource between goroutines is the database pool.
func (o *Orchestrator) RunAll(ctx context.Context, sweep SweepFunc, parallelism int) (*Summary, error) {
	conns, err := o.store.ActiveConnections(ctx)
	if err != nil {
		return nil, err
	}
	if parallelism <= 0 {
		parallelism = 4
	}

	total := &Summary{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range conns {
		conn := conns[i]
		g.Go(func() error {
			summary, err := sweep(gctx, &conn)
			mu.Lock()
			defer mu.Unlock()
			total.Merge(summary)
			if err != nil {
				// An infrastructure failure on one connection should not
				// cancel the others; record it and keep sweeping.
				total.addError("connection %s: %v", conn.Ref, err)
				total.Failed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return total, err
	}
	return total, nil
}

// FullSweep runs check, push, deletion and retry in order for one
// connection, merging the summaries.
func (o *Orchestrator) FullSweep(ctx context.Context, conn *database.Connection) (*Summary, error) {
	total := &Summary{}
	for _, sweep := range []SweepFunc{o.CheckSweep, o.PushSweep, o.DeletionSweep, o.RetrySweep} {
		summary, err := sweep(ctx, conn)
		total.Merge(summary)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
