package menu

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/menu", h.ListItems)
	rg.GET("/menu/:id", h.GetItem)
}

func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list menu")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"items": items})
}

func (h *Handler) GetItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid menu item id")
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load menu item")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"item": item})
}
