package notifications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tableside/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/notifications")
	{
		g.GET("", h.list)
		g.PATCH("/:id/read", h.markAsRead)
		g.PATCH("/read-all", h.markAllAsRead)
	}
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	if s := c.Query("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}

	list, unread, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list notifications")
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"notifications": list,
		"unread_count":  unread,
	})
}

func (h *Handler) markAsRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid id")
		return
	}
	if err := h.service.MarkAsRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to mark as read")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "read"})
}

func (h *Handler) markAllAsRead(c *gin.Context) {
	if err := h.service.MarkAllAsRead(c.Request.Context()); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to mark as read")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "all_read"})
}
