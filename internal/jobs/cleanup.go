// Package jobs holds scheduled maintenance jobs: retention cleanup for audit
// rows and terminal feed jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// CleanupConfig configures retention policies for cleanup jobs
type CleanupConfig struct {
	AuditRetentionDays   int
	FeedJobRetentionDays int
}

// DefaultCleanupConfig returns sensible retention defaults
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		AuditRetentionDays:   90, // Keep lifecycle audit for 90 days
		FeedJobRetentionDays: 30, // Terminal feed jobs are only useful briefly
	}
}

// CleanupAuditLog removes old lifecycle audit entries.
func CleanupAuditLog(ctx context.Context, cfg CleanupConfig) (int, error) {
	pool := getPool()
	cutoff := time.Now().AddDate(0, 0, -cfg.AuditRetentionDays)

	result, err := pool.Exec(ctx, `
		DELETE FROM sync_audit
		WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup audit log: %w", err)
	}

	deleted := int(result.RowsAffected())
	log.Info().
		Str("component", "cleanup").
		Int("rows_deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Cleaned up old audit entries")

	return deleted, nil
}

// CleanupFeedJobs removes feed jobs that reached a terminal status long ago.
// Jobs still in a transient status are never touched: the reconciler owns
// them until they resolve.
func CleanupFeedJobs(ctx context.Context, cfg CleanupConfig) (int, error) {
	pool := getPool()
	cutoff := time.Now().AddDate(0, 0, -cfg.FeedJobRetentionDays)

	result, err := pool.Exec(ctx, `
		DELETE FROM feed_jobs
		WHERE processing_status IN ('done', 'cancelled', 'fatal', 'timeout', 'error')
		  AND completed_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup feed jobs: %w", err)
	}

	deleted := int(result.RowsAffected())
	log.Info().
		Str("component", "cleanup").
		Int("rows_deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Cleaned up terminal feed jobs")

	return deleted, nil
}

func getPool() *pgxpool.Pool {
	return dbPoolGetter()
}

// dbPoolGetter is registered by the database package at init time so jobs
// can reach the pool without an import cycle.
var dbPoolGetter func() *pgxpool.Pool

// RegisterDBPoolGetter registers the database pool getter function
func RegisterDBPoolGetter(getter func() *pgxpool.Pool) {
	dbPoolGetter = getter
}
