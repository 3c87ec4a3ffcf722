package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/channelsync/sync-service/internal/database"
)

// ListItemsRequest represents query parameters for listing sync items
type ListItemsRequest struct {
	ConnectionRef string `form:"connectionRef" json:"connectionRef"`
	CatalogStatus string `form:"catalogStatus" json:"catalogStatus" jsonschema:"enum=default,enum=queued,enum=pending_check,enum=pending_creation,enum=in_catalog,enum=not_in_catalog,enum=pending_deletion,enum=deletion_in_progress,enum=deletion_failed,enum=deleted"`
	SyncStatus    string `form:"syncStatus" json:"syncStatus" jsonschema:"enum=pending,enum=synced,enum=failed"`
	Limit         int    `form:"limit" json:"limit" binding:"min=0,max=500" jsonschema:"minimum=1,maximum=500"`
	Offset        int    `form:"offset" json:"offset" binding:"min=0" jsonschema:"minimum=0"`
}

// SyncItemView is the API shape of one sync item
type SyncItemView struct {
	ID                 int64      `json:"id" jsonschema:"required"`
	SupplierRef        string     `json:"supplierRef" jsonschema:"required"`
	ConnectionRef      string     `json:"connectionRef" jsonschema:"required"`
	SupplierProductRef string     `json:"supplierProductRef" jsonschema:"required"`
	SKU                string     `json:"sku" jsonschema:"required"`
	UPC                string     `json:"upc"`
	BasePrice          float64    `json:"basePrice" jsonschema:"required"`
	FinalPrice         float64    `json:"finalPrice" jsonschema:"required"`
	Stock              int        `json:"stock"`
	ExternalID         *string    `json:"externalId"`
	CatalogStatus      string     `json:"catalogStatus" jsonschema:"required"`
	SyncStatus         string     `json:"syncStatus" jsonschema:"required"`
	SyncError          *string    `json:"syncError"`
	SyncAttempts       int        `json:"syncAttempts"`
	LastSyncedAt       *time.Time `json:"lastSyncedAt"`
	LastSyncAttempt    *time.Time `json:"lastSyncAttempt"`
	UpdatedAt          time.Time  `json:"updatedAt" jsonschema:"required"`
}

// ListItemsResponse represents the paginated item listing
type ListItemsResponse struct {
	Items []SyncItemView `json:"items" jsonschema:"required"`
	Total int            `json:"total" jsonschema:"required"`
}

func itemView(it *database.SyncItem) SyncItemView {
	return SyncItemView{
		ID:                 it.ID,
		SupplierRef:        it.SupplierRef,
		ConnectionRef:      it.ConnectionRef,
		SupplierProductRef: it.SupplierProductRef,
		SKU:                it.SKU,
		UPC:                it.UPC,
		BasePrice:          it.BasePrice,
		FinalPrice:         it.FinalPrice,
		Stock:              it.Stock,
		ExternalID:         it.ExternalID,
		CatalogStatus:      string(it.CatalogStatus),
		SyncStatus:         string(it.SyncStatus),
		SyncError:          it.SyncError,
		SyncAttempts:       it.SyncAttempts,
		LastSyncedAt:       it.LastSyncedAt,
		LastSyncAttempt:    it.LastSyncAttempt,
		UpdatedAt:          it.UpdatedAt,
	}
}

// ListItems returns a paginated list of sync items with optional filters
// @Summary List sync items
// @Description Returns a paginated list of sync items with optional connection and status filters
// @Tags items
// @Accept json
// @Produce json
// @Param connectionRef query string false "Filter by connection ref"
// @Param catalogStatus query string false "Filter by catalog status"
// @Param syncStatus query string false "Filter by sync status" Enums(pending, synced, failed)
// @Param limit query int false "Number of items to return" default(50) minimum(1) maximum(500)
// @Param offset query int false "Number of items to skip" default(0) minimum(0)
// @Success 200 {object} ListItemsResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/items [get]
func ListItems(c *gin.Context) {
	var req ListItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit == 0 {
		req.Limit = 50
	}

	pool := database.Pool()
	ctx := c.Request.Context()

	where := " WHERE deleted_at IS NULL"
	args := []interface{}{}
	argIdx := 1

	if req.ConnectionRef != "" {
		where += fmt.Sprintf(" AND connection_ref = $%d", argIdx)
		args = append(args, req.ConnectionRef)
		argIdx++
	}
	if req.CatalogStatus != "" {
		where += fmt.Sprintf(" AND catalog_status = $%d", argIdx)
		args = append(args, req.CatalogStatus)
		argIdx++
	}
	if req.SyncStatus != "" {
		where += fmt.Sprintf(" AND sync_status = $%d", argIdx)
		args = append(args, req.SyncStatus)
		argIdx++
	}

	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM sync_items"+where, args...).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count items"})
		return
	}

	query := `
		SELECT id, supplier_ref, connection_ref, supplier_product_ref, sku, upc,
		       base_price, final_price, stock, external_id,
		       catalog_status, sync_status, sync_error, sync_attempts,
		       last_synced_at, last_sync_attempt, updated_at
		FROM sync_items` + where +
		fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list items"})
		return
	}
	defer rows.Close()

	items := make([]SyncItemView, 0, req.Limit)
	for rows.Next() {
		var v SyncItemView
		err := rows.Scan(
			&v.ID, &v.SupplierRef, &v.ConnectionRef, &v.SupplierProductRef, &v.SKU, &v.UPC,
			&v.BasePrice, &v.FinalPrice, &v.Stock, &v.ExternalID,
			&v.CatalogStatus, &v.SyncStatus, &v.SyncError, &v.SyncAttempts,
			&v.LastSyncedAt, &v.LastSyncAttempt, &v.UpdatedAt,
		)
		if err != nil {
			continue
		}
		items = append(items, v)
	}

	c.JSON(http.StatusOK, ListItemsResponse{Items: items, Total: total})
}

// GetItem returns one sync item by id
// @Summary Get sync item
// @Description Returns one sync item with its full price and lifecycle state
// @Tags items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} SyncItemView
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Not found"
// @Router /internal/items/{id} [get]
func GetItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	item, err := database.GetItem(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load item"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	c.JSON(http.StatusOK, itemView(item))
}

// AuditEntryView is the API shape of one lifecycle audit entry
type AuditEntryView struct {
	ID         string    `json:"id" jsonschema:"required"`
	FromStatus string    `json:"fromStatus" jsonschema:"required"`
	ToStatus   string    `json:"toStatus" jsonschema:"required"`
	Event      string    `json:"event" jsonschema:"required"`
	Detail     *string   `json:"detail"`
	CreatedAt  time.Time `json:"createdAt" jsonschema:"required"`
}

// GetItemAudit returns recent lifecycle transitions for an item
// @Summary Get item audit trail
// @Description Returns recent lifecycle transitions for one sync item, newest first
// @Tags items
// @Produce json
// @Param id path int true "Item ID"
// @Param limit query int false "Number of entries to return" default(50)
// @Success 200 {object} map[string][]AuditEntryView
// @Failure 400 {object} map[string]string "Bad request"
// @Router /internal/items/{id}/audit [get]
func GetItemAudit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := database.ListAudit(c.Request.Context(), id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load audit entries"})
		return
	}

	views := make([]AuditEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, AuditEntryView{
			ID:         e.ID,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			Event:      e.Event,
			Detail:     e.Detail,
			CreatedAt:  e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"entries": views})
}
