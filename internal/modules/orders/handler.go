package orders

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tableside/internal/modules/menu"
	"tableside/internal/modules/tables"
	"tableside/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orders", h.CreateOrder)
	rg.GET("/orders", h.ListActive)
	rg.GET("/orders/:id", h.GetOrder)
	rg.POST("/orders/:id/items", h.AddItem)
	rg.PATCH("/orders/:id/items/:itemID", h.UpdateItem)
	rg.DELETE("/orders/:id/items/:itemID", h.RemoveItem)
	rg.POST("/orders/:id/items/:itemID/cancel", h.CancelItem)
	rg.POST("/orders/:id/confirm", h.ConfirmOrder)
	rg.POST("/orders/:id/cancel", h.CancelOrder)
	rg.POST("/orders/:id/serve", h.MarkServing)
	rg.POST("/orders/:id/complete", h.CompleteOrder)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), req)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"order": order})
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": order})
}

func (h *Handler) ListActive(c *gin.Context) {
	list, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		writeOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"orders": list})
}

func (h *Handler) AddItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	order, err := h.service.AddItem(c.Request.Context(), id, req)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": order})
}

func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	order, err := h.service.UpdateItem(c.Request.Context(), id, itemID, req)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": order})
}

func (h *Handler) RemoveItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}

	order, err := h.service.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": order})
}

func (h *Handler) CancelItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "cancellation reason is required")
		return
	}

	order, err := h.service.CancelItem(c.Request.Context(), id, itemID, req.Reason)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": order})
}

func (h *Handler) ConfirmOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.ConfirmOrder(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": order})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "cancellation reason is required")
		return
	}

	order, err := h.service.CancelOrder(c.Request.Context(), id, req.Reason)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": order})
}

func (h *Handler) MarkServing(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.MarkServing(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": order})
}

func (h *Handler) CompleteOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.CompleteOrder(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": order})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid "+name)
		return 0, false
	}
	return id, true
}

// writeOrderError maps service sentinels onto the error taxonomy: 404
// for missing entities, 409 for conflicts, 400 with the violated rule
// named for everything the state machine refuses.
func writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrItemNotFound),
		errors.Is(err, tables.ErrNotFound), errors.Is(err, menu.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())

	case errors.Is(err, ErrTableOccupied), errors.Is(err, ErrActiveOrderExists):
		response.Error(c, http.StatusConflict, "ORDER_CONFLICT", err.Error())

	case errors.Is(err, ErrTableUnderMaintenance), errors.Is(err, ErrTableInactive),
		errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrOrderNotEditable),
		errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrKitchenStarted),
		errors.Is(err, ErrItemAlreadyServed), errors.Is(err, ErrValidation),
		errors.Is(err, menu.ErrNotAvailable):
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())

	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "order operation failed")
	}
}
