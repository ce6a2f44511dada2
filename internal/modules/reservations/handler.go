package reservations

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tableside/internal/modules/tables"
	"tableside/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/reservations", h.list)
	r.GET("/reservations/availability", h.availability)
	r.POST("/reservations", h.create)
	r.GET("/reservations/:id", h.get)
	r.PATCH("/reservations/:id", h.update)
	r.POST("/reservations/:id/confirm", h.confirm)
	r.POST("/reservations/:id/seat", h.seat)
	r.POST("/reservations/:id/no-show", h.noShow)
	r.POST("/reservations/:id/complete", h.complete)
	r.POST("/reservations/:id/cancel", h.cancel)
}

func (h *Handler) availability(c *gin.Context) {
	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	tables, err := h.service.ListAvailableTables(c.Request.Context(), q)
	if err != nil {
		writeReservationError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tables)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeReservationError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeReservationError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) list(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date query parameter is required")
		return
	}
	out, err := h.service.ListByDate(c.Request.Context(), date)
	if err != nil {
		writeReservationError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	res, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		writeReservationError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) confirm(c *gin.Context) {
	h.runTransition(c, func(id int64, req TransitionRequest) (any, error) {
		return h.service.Confirm(c.Request.Context(), id, req.Actor)
	})
}

func (h *Handler) seat(c *gin.Context) {
	h.runTransition(c, func(id int64, req TransitionRequest) (any, error) {
		return h.service.Seat(c.Request.Context(), id, req.Actor)
	})
}

func (h *Handler) noShow(c *gin.Context) {
	h.runTransition(c, func(id int64, req TransitionRequest) (any, error) {
		return h.service.MarkNoShow(c.Request.Context(), id, req.Actor)
	})
}

func (h *Handler) complete(c *gin.Context) {
	h.runTransition(c, func(id int64, req TransitionRequest) (any, error) {
		return h.service.Complete(c.Request.Context(), id, req.Actor)
	})
}

func (h *Handler) cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if req.Reason == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "cancellation reason is required")
		return
	}
	res, err := h.service.Cancel(c.Request.Context(), id, req.Actor, req.Reason)
	if err != nil {
		writeReservationError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// runTransition handles the shared shape of the transition endpoints:
// path id, optional JSON body, uniform error mapping.
func (h *Handler) runTransition(c *gin.Context, fn func(id int64, req TransitionRequest) (any, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req TransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
	}
	res, err := fn(id, req)
	if err != nil {
		writeReservationError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid id")
		return 0, false
	}
	return id, true
}

func writeReservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound) || errors.Is(err, tables.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrOverlap) || errors.Is(err, ErrTableOccupied):
		response.Error(c, http.StatusConflict, "RESERVATION_CONFLICT", err.Error())
	case errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrBelowMinCapacity),
		errors.Is(err, ErrTableUnderMaintenance),
		errors.Is(err, ErrTableInactive),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "RULE_VIOLATION", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
