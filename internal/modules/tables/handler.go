package tables

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tableside/internal/pkg/response"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tables", h.ListTables)
	rg.GET("/tables/:id", h.GetTable)
}

func (h *Handler) ListTables(c *gin.Context) {
	floor, _ := strconv.Atoi(c.Query("floor"))

	list, err := h.store.List(c.Request.Context(), floor)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list tables")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tables": list})
}

func (h *Handler) GetTable(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid table id")
		return
	}

	t, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load table")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"table": t})
}
