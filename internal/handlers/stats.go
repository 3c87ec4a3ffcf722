package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/channelsync/sync-service/internal/database"
)

// StatsResponse aggregates item and feed counts for dashboards
type StatsResponse struct {
	ItemsByCatalogStatus map[string]int `json:"itemsByCatalogStatus" jsonschema:"required"`
	ItemsBySyncStatus    map[string]int `json:"itemsBySyncStatus" jsonschema:"required"`
	FeedJobsByStatus     map[string]int `json:"feedJobsByStatus" jsonschema:"required"`
	ActiveConnections    int            `json:"activeConnections" jsonschema:"required"`
}

// GetStats returns aggregate sync state counts
// @Summary Get sync stats
// @Description Returns aggregate item counts by lifecycle status, sync status and feed job status
// @Tags stats
// @Produce json
// @Success 200 {object} StatsResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/stats [get]
func GetStats(c *gin.Context) {
	pool := database.Pool()
	ctx := c.Request.Context()

	resp := StatsResponse{
		ItemsByCatalogStatus: make(map[string]int),
		ItemsBySyncStatus:    make(map[string]int),
		FeedJobsByStatus:     make(map[string]int),
	}

	rows, err := pool.Query(ctx, `
		SELECT catalog_status, COUNT(*)
		FROM sync_items
		WHERE deleted_at IS NULL
		GROUP BY catalog_status
	`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count items"})
		return
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err == nil {
			resp.ItemsByCatalogStatus[status] = count
		}
	}
	rows.Close()

	rows, err = pool.Query(ctx, `
		SELECT sync_status, COUNT(*)
		FROM sync_items
		WHERE deleted_at IS NULL
		GROUP BY sync_status
	`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count items"})
		return
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err == nil {
			resp.ItemsBySyncStatus[status] = count
		}
	}
	rows.Close()

	rows, err = pool.Query(ctx, `
		SELECT processing_status, COUNT(*)
		FROM feed_jobs
		GROUP BY processing_status
	`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count feed jobs"})
		return
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err == nil {
			resp.FeedJobsByStatus[status] = count
		}
	}
	rows.Close()

	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM connections WHERE active`).Scan(&resp.ActiveConnections); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count connections"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
