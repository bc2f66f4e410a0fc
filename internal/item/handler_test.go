package item

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serome111/orderflow/internal/logger"
)

type memoryRepository struct {
	mu     sync.Mutex
	nextID int64
	items  []Item
}

func (r *memoryRepository) Create(ctx context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item.ID = r.nextID
	r.items = append(r.items, *item)
	return nil
}

func (r *memoryRepository) Get(ctx context.Context, id int64) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) List(ctx context.Context) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Item(nil), r.items...), nil
}

func setupItemTest() (*gin.Engine, *memoryRepository) {
	gin.SetMode(gin.TestMode)
	repo := &memoryRepository{}
	router := gin.New()
	NewHandler(repo, logger.NopLogger()).RegisterRoutes(router)
	return router, repo
}

func TestCreateItem(t *testing.T) {
	router, _ := setupItemTest()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items",
		strings.NewReader(`{"name": "Widget", "description": "A thing"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var created Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Widget", created.Name)
}

func TestCreateItemValidation(t *testing.T) {
	router, _ := setupItemTest()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(`{"name": ""}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestGetItem(t *testing.T) {
	router, repo := setupItemTest()
	require.NoError(t, repo.Create(context.Background(), &Item{Name: "Widget"}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/items/1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/items/99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListItems(t *testing.T) {
	router, repo := setupItemTest()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	require.NoError(t, repo.Create(context.Background(), &Item{Name: "A"}))
	require.NoError(t, repo.Create(context.Background(), &Item{Name: "B"}))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var items []Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, 2)
}
