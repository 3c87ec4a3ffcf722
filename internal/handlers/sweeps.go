package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/channelsync/sync-service/internal/database"
	"github.com/channelsync/sync-service/internal/taskqueue"
)

// sweepTaskTypes maps API sweep names to queue task types.
var sweepTaskTypes = map[string]taskqueue.TaskType{
	"check":   taskqueue.TaskTypeCatalogCheck,
	"reprice": taskqueue.TaskTypePricingRecompute,
	"retry":   taskqueue.TaskTypeRetryFailed,
	"cleanup": taskqueue.TaskTypeCleanup,
}

// TriggerSweepRequest represents the request body for triggering a sweep
type TriggerSweepRequest struct {
	ConnectionRef string `json:"connectionRef,omitempty"`
}

// TaskScheduledResponse represents the 202 response when a task is queued
type TaskScheduledResponse struct {
	TaskID  string `json:"taskId" jsonschema:"required"`
	Status  string `json:"status" jsonschema:"required"`
	PollURL string `json:"pollUrl" jsonschema:"required"`
}

// TriggerSweep queues a sweep task asynchronously
// @Summary Trigger a sweep
// @Description Queues one sweep (check, reprice, retry or cleanup) for background execution and returns 202 with a poll URL
// @Tags admin
// @Accept json
// @Produce json
// @Param sweep path string true "Sweep name" Enums(check, reprice, retry, cleanup)
// @Param request body TriggerSweepRequest false "Optional connection scope"
// @Success 202 {object} TaskScheduledResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/admin/sweeps/{sweep} [post]
func TriggerSweep(c *gin.Context) {
	taskType, ok := sweepTaskTypes[c.Param("sweep")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Unknown sweep: %s", c.Param("sweep")),
		})
		return
	}

	var req TriggerSweepRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	if req.ConnectionRef != "" {
		conn, err := database.GetConnection(c.Request.Context(), req.ConnectionRef)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load connection"})
			return
		}
		if conn == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Unknown connection: %s", req.ConnectionRef),
			})
			return
		}
	}

	queue := taskqueue.New(database.Pool())
	result := queue.ScheduleTask(c.Request.Context(), taskqueue.ScheduleTaskInput{
		TaskType: taskType,
		Payload:  taskqueue.SweepPayload{ConnectionRef: req.ConnectionRef},
	})
	if result.Err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule sweep"})
		return
	}

	c.JSON(http.StatusAccepted, TaskScheduledResponse{
		TaskID:  result.ID,
		Status:  "scheduled",
		PollURL: fmt.Sprintf("/internal/admin/tasks/%s", result.ID),
	})
}

// TriggerFeedReconcile queues reconciliation for one feed job
// @Summary Trigger feed reconciliation
// @Description Queues a reconcile task for one submitted feed job
// @Tags admin
// @Produce json
// @Param id path string true "Feed job ID"
// @Success 202 {object} TaskScheduledResponse
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Feed job already terminal"
// @Router /internal/admin/feeds/{id}/reconcile [post]
func TriggerFeedReconcile(c *gin.Context) {
	jobID := c.Param("id")

	job, err := database.GetFeedJob(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load feed job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "feed job not found"})
		return
	}
	if database.TerminalFeedStatus(job.ProcessingStatus) {
		c.JSON(http.StatusConflict, gin.H{
			"error": fmt.Sprintf("feed job already settled as %s", job.ProcessingStatus),
		})
		return
	}

	queue := taskqueue.New(database.Pool())
	result := queue.ScheduleTask(c.Request.Context(), taskqueue.ScheduleTaskInput{
		TaskType: taskqueue.TaskTypeFeedReconcile,
		Payload:  taskqueue.FeedReconcilePayload{FeedJobID: jobID, ConnectionRef: job.ConnectionRef},
	})
	if result.Err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule reconciliation"})
		return
	}

	c.JSON(http.StatusAccepted, TaskScheduledResponse{
		TaskID:  result.ID,
		Status:  "scheduled",
		PollURL: fmt.Sprintf("/internal/admin/tasks/%s", result.ID),
	})
}

// GetTaskStatus returns the status of a queued task
// @Summary Get task status
// @Description Returns the queue status of one background task
// @Tags admin
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Not found"
// @Router /internal/admin/tasks/{id} [get]
func GetTaskStatus(c *gin.Context) {
	queue := taskqueue.New(database.Pool())
	task, err := queue.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	resp := gin.H{
		"taskId":   task.ID,
		"taskType": task.TaskType,
		"status":   string(task.Status),
	}
	if task.ErrorMessage != nil {
		resp["error"] = *task.ErrorMessage
	}
	c.JSON(http.StatusOK, resp)
}
