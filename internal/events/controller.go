package events

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Moses-lal/Smart-Event-Manager/internal/pricing"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/middleware"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CreateEvent(c *gin.Context)
	GetEvent(c *gin.Context)
	UpdateEvent(c *gin.Context)
	DeleteEvent(c *gin.Context)
	ListEvents(c *gin.Context)
	ListPublicEvents(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func respondEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEventNotFound):
		response.Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrTotalSeatsImmutable), errors.Is(err, pricing.ErrInvalidLayout):
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrEventHasBookings):
		response.Error(c, http.StatusConflict, err.Error(), nil)
	default:
		response.Error(c, http.StatusInternalServerError, "Something went wrong", nil)
	}
}

func parseEventID(c *gin.Context) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid event ID", err.Error())
		return uuid.Nil, false
	}
	return eventID, true
}

// CreateEvent godoc
// @Summary      Create an event
// @Tags         admin-events
// @Accept       json
// @Produce      json
// @Param        request body CreateEventRequest true "Event"
// @Success      201 {object} response.StandardApiResponse{data=EventResponse}
// @Security     BearerAuth
// @Router       /admin/events [post]
func (ctrl *controller) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	admin, err := middleware.CurrentIdentity(c)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "Admin not authenticated", nil)
		return
	}

	event, err := ctrl.service.CreateEvent(c.Request.Context(), admin.UserID, req)
	if err != nil {
		respondEventError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Event created successfully", event)
}

// GetEvent godoc
// @Summary      Event detail with seat state
// @Tags         events
// @Produce      json
// @Param        id path string true "Event ID"
// @Success      200 {object} response.StandardApiResponse{data=EventResponse}
// @Failure      404 {object} response.StandardApiResponse
// @Security     BearerAuth
// @Router       /events/{id} [get]
func (ctrl *controller) GetEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	event, err := ctrl.service.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		respondEventError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Event retrieved successfully", event)
}

func (ctrl *controller) UpdateEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	admin, err := middleware.CurrentIdentity(c)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "Admin not authenticated", nil)
		return
	}

	event, err := ctrl.service.UpdateEvent(c.Request.Context(), eventID, admin.UserID, req)
	if err != nil {
		respondEventError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Event updated successfully", event)
}

func (ctrl *controller) DeleteEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	if err := ctrl.service.DeleteEvent(c.Request.Context(), eventID); err != nil {
		respondEventError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Event deleted successfully", nil)
}

func (ctrl *controller) ListEvents(c *gin.Context) {
	var query EventListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	events, err := ctrl.service.ListEvents(c.Request.Context(), query)
	if err != nil {
		respondEventError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Events retrieved successfully", events)
}

// ListPublicEvents godoc
// @Summary      Browse events open to the public
// @Tags         events
// @Produce      json
// @Param        page  query int false "Page"
// @Param        limit query int false "Page size"
// @Success      200 {object} response.StandardApiResponse{data=PaginatedPublicEvents}
// @Router       /public/events [get]
func (ctrl *controller) ListPublicEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	events, err := ctrl.service.ListPublicEvents(c.Request.Context(), page, limit)
	if err != nil {
		respondEventError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Events retrieved successfully", events)
}
