package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/channelsync/sync-service/internal/database"
)

// ListFeedJobsRequest represents query parameters for listing feed jobs
type ListFeedJobsRequest struct {
	ConnectionRef string `form:"connectionRef" json:"connectionRef"`
	Status        string `form:"status" json:"status" jsonschema:"enum=submitted,enum=in_progress,enum=done,enum=cancelled,enum=fatal,enum=timeout,enum=error"`
	Limit         int    `form:"limit" json:"limit" binding:"min=0,max=200" jsonschema:"minimum=1,maximum=200"`
	Offset        int    `form:"offset" json:"offset" binding:"min=0" jsonschema:"minimum=0"`
}

// FeedJobView is the API shape of one feed job
type FeedJobView struct {
	ID               string          `json:"id" jsonschema:"required"`
	ConnectionRef    string          `json:"connectionRef" jsonschema:"required"`
	ExternalFeedID   string          `json:"externalFeedId" jsonschema:"required"`
	FeedKind         string          `json:"feedKind" jsonschema:"required"`
	ProcessingStatus string          `json:"processingStatus" jsonschema:"required"`
	Processed        int             `json:"processed"`
	Successful       int             `json:"successful"`
	Errored          int             `json:"errored"`
	Warned           int             `json:"warned"`
	Errors           json.RawMessage `json:"errors,omitempty"`
	StartedAt        *time.Time      `json:"startedAt"`
	CompletedAt      *time.Time      `json:"completedAt"`
	CreatedAt        time.Time       `json:"createdAt" jsonschema:"required"`
}

// ListFeedJobsResponse represents the feed job listing
type ListFeedJobsResponse struct {
	Jobs []FeedJobView `json:"jobs" jsonschema:"required"`
}

func feedJobView(j *database.FeedJob) FeedJobView {
	return FeedJobView{
		ID:               j.ID,
		ConnectionRef:    j.ConnectionRef,
		ExternalFeedID:   j.ExternalFeedID,
		FeedKind:         j.FeedKind,
		ProcessingStatus: j.ProcessingStatus,
		Processed:        j.Processed,
		Successful:       j.Successful,
		Errored:          j.Errored,
		Warned:           j.Warned,
		Errors:           j.ErrorsPayload,
		StartedAt:        j.StartedAt,
		CompletedAt:      j.CompletedAt,
		CreatedAt:        j.CreatedAt,
	}
}

// ListFeedJobsHandler returns recent feed jobs with optional filters
// @Summary List feed jobs
// @Description Returns recent bulk feed jobs with optional connection and status filters, newest first
// @Tags feeds
// @Produce json
// @Param connectionRef query string false "Filter by connection ref"
// @Param status query string false "Filter by processing status"
// @Param limit query int false "Number of jobs to return" default(20) minimum(1) maximum(200)
// @Param offset query int false "Number of jobs to skip" default(0) minimum(0)
// @Success 200 {object} ListFeedJobsResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/feeds [get]
func ListFeedJobsHandler(c *gin.Context) {
	var req ListFeedJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	jobs, err := database.ListFeedJobs(c.Request.Context(), req.ConnectionRef, req.Status, req.Limit, req.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list feed jobs"})
		return
	}

	views := make([]FeedJobView, 0, len(jobs))
	for i := range jobs {
		views = append(views, feedJobView(&jobs[i]))
	}
	c.JSON(http.StatusOK, ListFeedJobsResponse{Jobs: views})
}

// GetFeedJobHandler returns one feed job by id
// @Summary Get feed job
// @Description Returns one bulk feed job with its reconciliation counts
// @Tags feeds
// @Produce json
// @Param id path string true "Feed job ID"
// @Success 200 {object} FeedJobView
// @Failure 404 {object} map[string]string "Not found"
// @Router /internal/feeds/{id} [get]
func GetFeedJobHandler(c *gin.Context) {
	job, err := database.GetFeedJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load feed job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "feed job not found"})
		return
	}
	c.JSON(http.StatusOK, feedJobView(job))
}
