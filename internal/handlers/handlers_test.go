package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/internal/items", ListItems)
	r.GET("/internal/items/:id", GetItem)
	r.GET("/internal/items/:id/audit", GetItemAudit)
	r.GET("/internal/feeds", ListFeedJobsHandler)
	r.POST("/internal/admin/sweeps/:sweep", TriggerSweep)
	return r
}

func TestListItemsRejectsExcessiveLimit(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/internal/items?limit=9999", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestGetItemRejectsNonNumericID(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/internal/items/not-a-number", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "id must be an integer")
}

func TestGetItemAuditRejectsNonNumericID(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/internal/items/abc/audit", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListFeedJobsRejectsNegativeOffset(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/internal/feeds?offset=-1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerSweepRejectsUnknownSweep(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/admin/sweeps/defragment", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unknown sweep")
}

func TestTriggerSweepRejectsMalformedBody(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/admin/sweeps/check", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSweepTaskTypeMapping(t *testing.T) {
	assert.Len(t, sweepTaskTypes, 4)
	for _, name := range []string{"check", "reprice", "retry", "cleanup"} {
		_, ok := sweepTaskTypes[name]
		assert.True(t, ok, "sweep %s should map to a task type", name)
	}
}
