package order

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/serome111/orderflow/internal/logger"
	"github.com/serome111/orderflow/pkg/errors"
	"github.com/serome111/orderflow/pkg/transform"
)

type Handler struct {
	Pipeline   *Pipeline
	Transforms *transform.Registry
	Logger     logger.Logger
}

func NewHandler(pipeline *Pipeline, transforms *transform.Registry, log logger.Logger) *Handler {
	return &Handler{
		Pipeline:   pipeline,
		Transforms: transforms,
		Logger:     log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.POST("", h.EnqueueOrder)
			orders.GET("", h.ListOrders)
			orders.GET("/:id", h.GetOrder)
		}

		v1.GET("/functions", h.ListFunctions)
	}
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

// EnqueueOrder accepts a submission and hands it to the pipeline. The
// 202 response only acknowledges acceptance; processing is async.
func (h *Handler) EnqueueOrder(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	if err := h.Pipeline.Enqueue(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "accepted",
		"order_id": req.ID,
	})
}

func (h *Handler) ListOrders(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, errors.ToErrorResponse(
				errors.ErrValidation.WithDetail("message", "limit must be a positive integer"),
			))
			return
		}
		limit = parsed
	}

	records, err := h.Pipeline.ListProcessed(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if records == nil {
		records = []Record{}
	}

	c.JSON(http.StatusOK, records)
}

func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(
			errors.ErrValidation.WithDetail("message", "order id must be an integer"),
		))
		return
	}

	rec, err := h.Pipeline.GetProcessed(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListFunctions(c *gin.Context) {
	names := []string{}
	if h.Transforms != nil {
		names = h.Transforms.Names()
	}
	c.JSON(http.StatusOK, gin.H{"functions": names})
}
