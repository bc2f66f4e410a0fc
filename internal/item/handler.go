package item

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/serome111/orderflow/internal/logger"
	"github.com/serome111/orderflow/pkg/errors"
)

type Handler struct {
	Repo   Repository
	Logger logger.Logger
}

func NewHandler(repo Repository, log logger.Logger) *Handler {
	return &Handler{
		Repo:   repo,
		Logger: log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		items := v1.Group("/items")
		{
			items.POST("", h.CreateItem)
			items.GET("", h.ListItems)
			items.GET("/:id", h.GetItem)
		}
	}
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}

func (h *Handler) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	item := Item{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.Repo.Create(c.Request.Context(), &item); err != nil {
		h.HandleError(c, errors.ErrPersistence.WithCause(err))
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.Repo.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, errors.ErrPersistence.WithCause(err))
		return
	}
	if items == nil {
		items = []Item{}
	}

	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(
			errors.ErrValidation.WithDetail("message", "item id must be an integer"),
		))
		return
	}

	item, err := h.Repo.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, errors.ErrPersistence.WithCause(err))
		return
	}
	if item == nil {
		h.HandleError(c, errors.ErrNotFound.WithDetail("message", "item not found"))
		return
	}

	c.JSON(http.StatusOK, item)
}
