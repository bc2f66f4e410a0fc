package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serome111/orderflow/internal/logger"
	"github.com/serome111/orderflow/pkg/transform"
)

func setupHandlerTest(t *testing.T) (*gin.Engine, *Pipeline, *memoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemoryStore()
	p := newTestPipeline(store, &stubProvider{attrs: catalogAttrs()}, 3)
	p.Start()
	t.Cleanup(func() { _ = p.Stop(context.Background()) })

	router := gin.New()
	NewHandler(p, transform.NewRegistry(), logger.NopLogger()).RegisterRoutes(router)
	return router, p, store
}

func TestEnqueueOrderAccepted(t *testing.T) {
	router, _, store := setupHandlerTest(t)

	body := `{
		"id": 42,
		"customer": "ACME Corp",
		"items": [{"sku": "P001", "quantity": 3, "unit_price": 100.0}],
		"submitted_at": "2025-06-01T12:00:00Z"
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, float64(42), resp["order_id"])

	waitForRecords(t, store, 1)
}

func TestEnqueueOrderValidationFailure(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	body := `{"id": 0, "customer": "", "items": []}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestEnqueueOrderMalformedJSON(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrder(t *testing.T) {
	router, p, store := setupHandlerTest(t)

	require.NoError(t, p.Enqueue(context.Background(), testRequest(42)))
	waitForRecords(t, store, 1)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var rec Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, int64(42), rec.OrderID)
	assert.Equal(t, 573.75, rec.FinalTotal)
}

func TestGetOrderNotFound(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/999", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestGetOrderInvalidID(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrders(t *testing.T) {
	router, p, store := setupHandlerTest(t)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, p.Enqueue(context.Background(), testRequest(i)))
	}
	waitForRecords(t, store, 3)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var records []Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 3)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 2)
}

func TestListOrdersInvalidLimit(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=-1", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListFunctions(t *testing.T) {
	router, _, _ := setupHandlerTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/functions", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Functions []string `json:"functions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"add", "subtract", "to_lowercase"}, resp.Functions)
}
