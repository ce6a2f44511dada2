package kitchen

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tableside/internal/pkg/response"
)

type Handler struct {
	adapter *Adapter
}

func NewHandler(adapter *Adapter) *Handler {
	return &Handler{adapter: adapter}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/kitchen/queue", h.ListQueue)
	rg.POST("/kitchen/:id/start", h.StartPreparing)
	rg.POST("/kitchen/:id/ready", h.MarkReady)
}

type startRequest struct {
	ChefID int64 `json:"chef_id" binding:"required"`
}

func (h *Handler) ListQueue(c *gin.Context) {
	queue, err := h.adapter.ListQueue(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load kitchen queue")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"queue": queue})
}

func (h *Handler) StartPreparing(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid kitchen order id")
		return
	}

	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "chef_id is required")
		return
	}

	ko, err := h.adapter.StartPreparing(c.Request.Context(), id, req.ChefID)
	if err != nil {
		writeKitchenError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"kitchen_order": ko})
}

func (h *Handler) MarkReady(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid kitchen order id")
		return
	}

	ko, err := h.adapter.MarkReady(c.Request.Context(), id)
	if err != nil {
		writeKitchenError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"kitchen_order": ko})
}

func writeKitchenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrChefNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "kitchen operation failed")
	}
}
