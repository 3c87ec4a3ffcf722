package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/channelsync/sync-service/internal/pkg/cuid2"
)

const feedJobColumns = `
	id, connection_ref, external_feed_id, feed_kind, processing_status,
	submit_doc_ref, result_doc_ref, started_at, completed_at,
	processed_count, successful_count, error_count, warning_count,
	errors_payload, created_at, updated_at`

func scanFeedJob(row pgx.Row) (*FeedJob, error) {
	var j FeedJob
	err := row.Scan(
		&j.ID, &j.ConnectionRef, &j.ExternalFeedID, &j.FeedKind, &j.ProcessingStatus,
		&j.SubmitDocRef, &j.ResultDocRef, &j.StartedAt, &j.CompletedAt,
		&j.Processed, &j.Successful, &j.Errored, &j.Warned,
		&j.ErrorsPayload, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// CreateFeedJob records a freshly submitted bulk feed.
func CreateFeedJob(ctx context.Context, connectionRef, externalFeedID, feedKind string, submitDocRef *string) (*FeedJob, error) {
	id := cuid2.GeneratePrefixedId("feed", cuid2.PrefixedIdOptions{})

	job, err := scanFeedJob(Pool().QueryRow(ctx, `
		INSERT INTO feed_jobs (
			id, connection_ref, external_feed_id, feed_kind, processing_status,
			submit_doc_ref, started_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, 'submitted', $5, NOW(), NOW(), NOW())
		RETURNING `+feedJobColumns+`
	`, id, connectionRef, externalFeedID, feedKind, submitDocRef))
	if err != nil {
		return nil, fmt.Errorf("create feed job: %w", err)
	}
	return job, nil
}

// GetFeedJob loads one feed job by local id.
func GetFeedJob(ctx context.Context, id string) (*FeedJob, error) {
	job, err := scanFeedJob(Pool().QueryRow(ctx, `
		SELECT `+feedJobColumns+` FROM feed_jobs WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

// GetFeedJobByExternalID loads a feed job by the marketplace-side feed id,
// which is what a resumed reconciliation has in hand.
func GetFeedJobByExternalID(ctx context.Context, externalFeedID string) (*FeedJob, error) {
	job, err := scanFeedJob(Pool().QueryRow(ctx, `
		SELECT `+feedJobColumns+` FROM feed_jobs WHERE external_feed_id = $1
	`, externalFeedID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

// PendingFeedJobs returns jobs still awaiting a terminal status, oldest first.
func PendingFeedJobs(ctx context.Context, connectionRef string, limit int) ([]FeedJob, error) {
	rows, err := Pool().Query(ctx, `
		SELECT `+feedJobColumns+`
		FROM feed_jobs
		WHERE ($1 = '' OR connection_ref = $1)
		  AND processing_status IN ('submitted', 'in_progress')
		ORDER BY created_at
		LIMIT $2
	`, connectionRef, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending feed jobs: %w", err)
	}
	defer rows.Close()

	var jobs []FeedJob
	for rows.Next() {
		j, err := scanFeedJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// ListFeedJobs returns recent feed jobs for reporting.
func ListFeedJobs(ctx context.Context, connectionRef, status string, limit, offset int) ([]FeedJob, error) {
	rows, err := Pool().Query(ctx, `
		SELECT `+feedJobColumns+`
		FROM feed_jobs
		WHERE ($1 = '' OR connection_ref = $1)
		  AND ($2 = '' OR processing_status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, connectionRef, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list feed jobs: %w", err)
	}
	defer rows.Close()

	var jobs []FeedJob
	for rows.Next() {
		j, err := scanFeedJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// MarkFeedJobInProgress records that the marketplace reported the feed as
// processing. No-op if the job already left the transient states.
func MarkFeedJobInProgress(ctx context.Context, id string) error {
	_, err := Pool().Exec(ctx, `
		UPDATE feed_jobs
		SET processing_status = 'in_progress', updated_at = NOW()
		WHERE id = $1 AND processing_status = 'submitted'
	`, id)
	if err != nil {
		return fmt.Errorf("mark feed job %s in progress: %w", id, err)
	}
	return nil
}

// SetFeedJobResultDoc records the result document reference once polling
// discovers it. Surviving a crash mid-reconciliation depends on this being
// persisted before per-line fan-out starts.
func SetFeedJobResultDoc(ctx context.Context, id, resultDocRef string) error {
	_, err := Pool().Exec(ctx, `
		UPDATE feed_jobs
		SET result_doc_ref = $2, updated_at = NOW()
		WHERE id = $1
	`, id, resultDocRef)
	if err != nil {
		return fmt.Errorf("set result doc for feed job %s: %w", id, err)
	}
	return nil
}

// FeedJobCounts aggregates the per-line outcome counts of a processed feed.
type FeedJobCounts struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Errored    int `json:"errored"`
	Warned     int `json:"warned"`
}

// FinishFeedJob moves a job into a terminal status with its result summary.
// The optimistic guard keeps two concurrent reconcilers from both finishing
// the same job.
func FinishFeedJob(ctx context.Context, id, status string, counts FeedJobCounts, errorsPayload any) (bool, error) {
	if !TerminalFeedStatus(status) {
		return false, fmt.Errorf("refusing to finish feed job %s with non-terminal status %q", id, status)
	}

	var payload []byte
	if errorsPayload != nil {
		var err error
		payload, err = json.Marshal(errorsPayload)
		if err != nil {
			return false, fmt.Errorf("marshal errors payload: %w", err)
		}
	}

	tag, err := Pool().Exec(ctx, `
		UPDATE feed_jobs
		SET processing_status = $2,
		    processed_count = $3, successful_count = $4, error_count = $5, warning_count = $6,
		    errors_payload = $7,
		    completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND processing_status IN ('submitted', 'in_progress')
	`, id, status, counts.Processed, counts.Successful, counts.Errored, counts.Warned, payload)
	if err != nil {
		return false, fmt.Errorf("finish feed job %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
