package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/lifecycle"
	"github.com/channelsync/sync-service/internal/marketplace"
	"github.com/channelsync/sync-service/internal/storage"
)

// ClientResolver builds a marketplace client for a connection.
type ClientResolver func(conn *database.Connection) (marketplace.Client, error)

// RegistryResolver resolves clients through a marketplace registry.
func RegistryResolver(registry *marketplace.Registry) ClientResolver {
	if registry == nil {
		registry = marketplace.DefaultRegistry
	}
	return func(conn *database.Connection) (marketplace.Client, error) {
		return registry.New(marketplace.Kind(conn.MarketplaceKind), marketplace.ClientConfig{
			ConnectionRef: conn.Ref,
			Endpoint:      conn.Endpoint,
		})
	}
}

// Config bounds the polling loop.
type Config struct {
	// PollInterval is the fixed wait between status polls.
	PollInterval time.Duration

	// MaxAttempts bounds polling; exhausted attempts mark the job timeout
	// and leave its items for a later sweep.
	MaxAttempts int
}

// DefaultConfig returns the polling defaults (10s interval, 30 attempts,
// roughly a five minute ceiling).
func DefaultConfig() Config {
	return Config{
		PollInterval: 10 * time.Second,
		MaxAttempts:  30,
	}
}

// Reconciler drives submitted feed jobs to a terminal state. All load-bearing
// state lives in the feed_jobs row and the marketplace, so a fresh process
// can resume any job by id after a crash.
type Reconciler struct {
	store   Store
	clients ClientResolver
	docs    storage.Storage
	cfg     Config
	logger  zerolog.Logger
}

// New creates a reconciler.
func New(store Store, clients ClientResolver, cfg Config) *Reconciler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	return &Reconciler{
		store:   store,
		clients: clients,
		cfg:     cfg,
		logger:  log.With().Str("component", "feed-reconciler").Logger(),
	}
}

// WithDocStore makes the reconciler archive fetched result documents and
// read archived submit payloads for terminal-failure fan-out.
func (r *Reconciler) WithDocStore(docs storage.Storage) *Reconciler {
	r.docs = docs
	return r
}

// Reconcile polls one feed job to a terminal state and fans the per-line
// results into item updates. Already-terminal jobs return unchanged.
func (r *Reconciler) Reconcile(ctx context.Context, jobID string) (*database.FeedJob, error) {
	job, err := r.store.GetFeedJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("feed job %s not found", jobID)
	}
	if database.TerminalFeedStatus(job.ProcessingStatus) {
		return job, nil
	}

	logger := r.logger.With().Str("feed_job", job.ID).Str("external_feed", job.ExternalFeedID).Logger()

	conn, err := r.store.GetConnection(ctx, job.ConnectionRef)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, fmt.Errorf("connection %s for feed job %s not found", job.ConnectionRef, job.ID)
	}
	client, err := r.clients(conn)
	if err != nil {
		return nil, err
	}

	if job.ProcessingStatus == database.FeedStatusSubmitted {
		if err := r.store.MarkFeedJobInProgress(ctx, job.ID); err != nil {
			return nil, err
		}
	}

	// Resume path: a crash after the result doc reference was persisted
	// skips straight to fan-out, no re-polling.
	if job.ResultDocRef != nil && *job.ResultDocRef != "" {
		return r.settleDone(ctx, job, client, *job.ResultDocRef, logger)
	}

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		statusPolls.WithLabelValues(job.ConnectionRef).Inc()
		status, err := client.GetFeedStatus(ctx, job.ExternalFeedID)
		if err != nil {
			logger.Warn().Int("attempt", attempt).Err(err).Msg("feed status poll failed")
			if err := sleepCtx(ctx, r.cfg.PollInterval); err != nil {
				return job, err
			}
			continue
		}

		switch status.State {
		case marketplace.FeedStateDone:
			if status.ResultDocRef == "" {
				// Settled with nothing to report.
				if _, err := r.store.FinishFeedJob(ctx, job.ID, database.FeedStatusDone, database.FeedJobCounts{}, nil); err != nil {
					return job, err
				}
				jobsSettled.WithLabelValues(database.FeedStatusDone).Inc()
				return r.store.GetFeedJob(ctx, job.ID)
			}
			if err := r.store.SetFeedJobResultDoc(ctx, job.ID, status.ResultDocRef); err != nil {
				return job, err
			}
			return r.settleDone(ctx, job, client, status.ResultDocRef, logger)

		case marketplace.FeedStateCancelled:
			return r.settleTerminalFailure(ctx, job, database.FeedStatusCancelled, "feed cancelled by marketplace", logger)

		case marketplace.FeedStateFatal:
			return r.settleTerminalFailure(ctx, job, database.FeedStatusFatal, "feed failed fatally on marketplace side", logger)

		default:
			logger.Debug().Int("attempt", attempt).Str("state", string(status.State)).Msg("feed still processing")
			if err := sleepCtx(ctx, r.cfg.PollInterval); err != nil {
				return job, err
			}
		}
	}

	// Attempts exhausted with no terminal status: mark timeout and leave
	// the items untouched so the next sweep re-attempts them.
	if _, err := r.store.FinishFeedJob(ctx, job.ID, database.FeedStatusTimeout, database.FeedJobCounts{}, nil); err != nil {
		return job, err
	}
	jobsSettled.WithLabelValues(database.FeedStatusTimeout).Inc()
	logger.Warn().Int("attempts", r.cfg.MaxAttempts).Msg("feed polling timed out")
	return r.store.GetFeedJob(ctx, job.ID)
}

// ReconcilePending reconciles every unfinished feed job of a connection.
func (r *Reconciler) ReconcilePending(ctx context.Context, connectionRef string, limit int) ([]database.FeedJob, error) {
	if limit <= 0 {
		limit = 50
	}
	pending, err := r.store.PendingFeedJobs(ctx, connectionRef, limit)
	if err != nil {
		return nil, err
	}

	out := make([]database.FeedJob, 0, len(pending))
	for i := range pending {
		job, err := r.Reconcile(ctx, pending[i].ID)
		if err != nil {
			if ctx.Err() != nil {
				return out, err
			}
			r.logger.Error().Str("feed_job", pending[i].ID).Err(err).Msg("feed reconciliation failed")
			continue
		}
		out = append(out, *job)
	}
	return out, nil
}

// settleDone fetches and decodes the result document, fans per-line outcomes
// into item updates and finishes the job.
func (r *Reconciler) settleDone(ctx context.Context, job *database.FeedJob, client marketplace.Client, resultDocRef string, logger zerolog.Logger) (*database.FeedJob, error) {
	raw, err := client.FetchFeedResult(ctx, resultDocRef)
	if err != nil {
		return job, fmt.Errorf("failed to fetch feed result %s: %w", resultDocRef, err)
	}
	r.archiveResult(ctx, job, raw, logger)

	lines, err := DecodeResultLines(raw)
	if err != nil {
		if _, ferr := r.store.FinishFeedJob(ctx, job.ID, database.FeedStatusError, database.FeedJobCounts{}, []string{err.Error()}); ferr != nil {
			return job, ferr
		}
		jobsSettled.WithLabelValues(database.FeedStatusError).Inc()
		return r.store.GetFeedJob(ctx, job.ID)
	}

	var counts database.FeedJobCounts
	var errorLines []marketplace.ResultLine
	for _, line := range lines {
		if line.SKU == "" {
			logger.Warn().Str("code", string(line.Code)).Msg("feed result line missing SKU, skipped")
			continue
		}
		counts.Processed++
		switch line.Code {
		case marketplace.ResultSuccess:
			if err := r.applySuccess(ctx, job, line.SKU, logger); err != nil {
				logger.Error().Str("sku", line.SKU).Err(err).Msg("failed to apply feed success")
				continue
			}
			counts.Successful++
		case marketplace.ResultWarning:
			if err := r.applySuccess(ctx, job, line.SKU, logger); err != nil {
				logger.Error().Str("sku", line.SKU).Err(err).Msg("failed to apply feed warning")
				continue
			}
			logger.Warn().Str("sku", line.SKU).Str("message", line.Message).Msg("feed line succeeded with warning")
			counts.Warned++
		default:
			if err := r.applyError(ctx, job, line, logger); err != nil {
				logger.Error().Str("sku", line.SKU).Err(err).Msg("failed to apply feed error")
				continue
			}
			counts.Errored++
			errorLines = append(errorLines, line)
		}
	}

	var payload any
	if len(errorLines) > 0 {
		payload = errorLines
	}
	if _, err := r.store.FinishFeedJob(ctx, job.ID, database.FeedStatusDone, counts, payload); err != nil {
		return job, err
	}
	jobsSettled.WithLabelValues(database.FeedStatusDone).Inc()
	resultLines.WithLabelValues("success").Add(float64(counts.Successful))
	resultLines.WithLabelValues("warning").Add(float64(counts.Warned))
	resultLines.WithLabelValues("error").Add(float64(counts.Errored))
	logger.Info().
		Int("processed", counts.Processed).
		Int("successful", counts.Successful).
		Int("errored", counts.Errored).
		Int("warned", counts.Warned).
		Msg("feed reconciled")
	return r.store.GetFeedJob(ctx, job.ID)
}

// applySuccess settles one successful line: deletes finish the deletion
// lifecycle, creations and updates land the item in_catalog and synced.
func (r *Reconciler) applySuccess(ctx context.Context, job *database.FeedJob, sku string, logger zerolog.Logger) error {
	item, err := r.store.GetItemBySKU(ctx, job.ConnectionRef, sku)
	if err != nil {
		return err
	}
	if item == nil {
		logger.Warn().Str("sku", sku).Msg("feed result references unknown SKU, skipped")
		return nil
	}

	if job.FeedKind == string(marketplace.FeedCatalogDelete) {
		if _, err := r.store.Transition(ctx, item, lifecycle.EventDeleteSucceeds, "bulk delete confirmed"); err != nil {
			return err
		}
		return r.store.MarkSynced(ctx, item.ID)
	}

	switch item.CatalogStatus {
	case lifecycle.StatusPendingCreation:
		if _, err := r.store.Transition(ctx, item, lifecycle.EventCreateSucceeds, "bulk create confirmed"); err != nil {
			return err
		}
	case lifecycle.StatusPendingCheck:
		if _, err := r.store.Transition(ctx, item, lifecycle.EventFoundInRemote, "bulk listing confirmed"); err != nil {
			return err
		}
	}
	return r.store.MarkSynced(ctx, item.ID)
}

// applyError settles one errored line with its per-item message.
func (r *Reconciler) applyError(ctx context.Context, job *database.FeedJob, line marketplace.ResultLine, logger zerolog.Logger) error {
	item, err := r.store.GetItemBySKU(ctx, job.ConnectionRef, line.SKU)
	if err != nil {
		return err
	}
	if item == nil {
		logger.Warn().Str("sku", line.SKU).Msg("feed result references unknown SKU, skipped")
		return nil
	}

	msg := line.Message
	if msg == "" {
		msg = "feed line rejected by marketplace"
	}
	if job.FeedKind == string(marketplace.FeedCatalogDelete) {
		if _, err := r.store.Transition(ctx, item, lifecycle.EventDeleteFails, msg); err != nil {
			return err
		}
	}
	return r.store.MarkSyncFailed(ctx, item.ID, msg)
}

// settleTerminalFailure marks the job cancelled/fatal and fans a shared
// failure message to every item from the archived submit payload.
func (r *Reconciler) settleTerminalFailure(ctx context.Context, job *database.FeedJob, status, message string, logger zerolog.Logger) (*database.FeedJob, error) {
	if _, err := r.store.FinishFeedJob(ctx, job.ID, status, database.FeedJobCounts{}, []string{message}); err != nil {
		return job, err
	}
	jobsSettled.WithLabelValues(status).Inc()

	for _, sku := range r.submittedSKUs(ctx, job, logger) {
		item, err := r.store.GetItemBySKU(ctx, job.ConnectionRef, sku)
		if err != nil || item == nil {
			continue
		}
		if job.FeedKind == string(marketplace.FeedCatalogDelete) {
			if _, err := r.store.Transition(ctx, item, lifecycle.EventDeleteFails, message); err != nil {
				logger.Error().Str("sku", sku).Err(err).Msg("failed to record delete failure")
			}
		}
		if err := r.store.MarkSyncFailed(ctx, item.ID, message); err != nil {
			logger.Error().Str("sku", sku).Err(err).Msg("failed to record feed failure")
		}
	}

	logger.Warn().Str("status", status).Msg("feed settled in terminal failure")
	return r.store.GetFeedJob(ctx, job.ID)
}

// submittedSKUs recovers the submitted feed lines from the archived payload.
func (r *Reconciler) submittedSKUs(ctx context.Context, job *database.FeedJob, logger zerolog.Logger) []string {
	if r.docs == nil || job.SubmitDocRef == nil || *job.SubmitDocRef == "" {
		logger.Warn().Msg("no archived submit payload, items keep their previous state")
		return nil
	}
	raw, err := r.docs.Get(ctx, *job.SubmitDocRef)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read archived submit payload")
		return nil
	}
	var lines []marketplace.FeedLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		logger.Warn().Err(err).Msg("failed to decode archived submit payload")
		return nil
	}
	skus := make([]string, 0, len(lines))
	for _, l := range lines {
		skus = append(skus, l.SKU)
	}
	return skus
}

// archiveResult stores the raw result document for later inspection.
func (r *Reconciler) archiveResult(ctx context.Context, job *database.FeedJob, raw []byte, logger zerolog.Logger) {
	if r.docs == nil {
		return
	}
	key := storage.BuildResultKey(job.ConnectionRef, job.ID, time.Now().UTC())
	err := r.docs.Put(ctx, key, raw, &storage.Metadata{
		ContentType:   "application/json",
		ConnectionRef: job.ConnectionRef,
		FeedJobID:     job.ID,
		FetchedAt:     time.Now().UTC(),
		Compressed:    storage.IsGzipped(raw),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to archive feed result document")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
