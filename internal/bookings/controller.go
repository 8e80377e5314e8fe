package bookings

import (
	"errors"
	"net/http"

	"github.com/Moses-lal/Smart-Event-Manager/internal/seats"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/middleware"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBookingNotFound):
		response.Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "Access denied", nil)
	case errors.Is(err, ErrAlreadyCancelled):
		response.Error(c, http.StatusConflict, err.Error(), nil)
	default:
		seats.RespondError(c, err)
	}
}

func currentIdentity(c *gin.Context) (middleware.Identity, bool) {
	id, err := middleware.CurrentIdentity(c)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "User not authenticated", nil)
		return middleware.Identity{}, false
	}
	return id, true
}

func parseBookingID(c *gin.Context) (uuid.UUID, bool) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid booking ID", err.Error())
		return uuid.Nil, false
	}
	return bookingID, true
}

// CreateBooking godoc
// @Summary      Book seats
// @Description  Reserves the seats and records a confirmed booking. A 409 lists the seats someone else took.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request body CreateBookingRequest true "Seat selection"
// @Success      201 {object} response.StandardApiResponse{data=BookingResponse}
// @Failure      400 {object} response.StandardApiResponse
// @Failure      409 {object} response.StandardApiResponse
// @Failure      422 {object} response.StandardApiResponse
// @Security     BearerAuth
// @Router       /bookings [post]
func (ctrl *Controller) CreateBooking(c *gin.Context) {
	user, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	booking, err := ctrl.service.CreateBooking(c.Request.Context(), user.UserID, req)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Booking confirmed successfully", booking)
}

// CancelBooking godoc
// @Summary      Cancel a booking
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} response.StandardApiResponse{data=BookingResponse}
// @Failure      403 {object} response.StandardApiResponse
// @Failure      404 {object} response.StandardApiResponse
// @Failure      409 {object} response.StandardApiResponse
// @Security     BearerAuth
// @Router       /bookings/{id}/cancel [put]
func (ctrl *Controller) CancelBooking(c *gin.Context) {
	user, ok := currentIdentity(c)
	if !ok {
		return
	}
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	booking, err := ctrl.service.CancelBooking(c.Request.Context(), bookingID, user)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Booking cancelled successfully", booking)
}

// GetBooking godoc
// @Summary      Booking detail
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} response.StandardApiResponse{data=BookingResponse}
// @Security     BearerAuth
// @Router       /bookings/{id} [get]
func (ctrl *Controller) GetBooking(c *gin.Context) {
	user, ok := currentIdentity(c)
	if !ok {
		return
	}
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), bookingID, user)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Booking retrieved successfully", booking)
}

// GetMyBookings godoc
// @Summary      Bookings of the caller, newest first
// @Tags         bookings
// @Produce      json
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size"
// @Param        status query string false "confirmed or cancelled"
// @Success      200 {object} response.StandardApiResponse{data=PaginatedBookings}
// @Security     BearerAuth
// @Router       /bookings/me [get]
func (ctrl *Controller) GetMyBookings(c *gin.Context) {
	user, ok := currentIdentity(c)
	if !ok {
		return
	}

	var query BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	page, err := ctrl.service.GetMyBookings(c.Request.Context(), user.UserID, query)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Bookings retrieved successfully", page)
}

// GetAllBookings godoc
// @Summary      All bookings, newest first
// @Tags         admin-bookings
// @Produce      json
// @Param        page     query int    false "Page"
// @Param        limit    query int    false "Page size"
// @Param        status   query string false "confirmed or cancelled"
// @Param        event_id query string false "Event ID"
// @Success      200 {object} response.StandardApiResponse{data=PaginatedBookings}
// @Security     BearerAuth
// @Router       /admin/bookings [get]
func (ctrl *Controller) GetAllBookings(c *gin.Context) {
	var query BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	page, err := ctrl.service.GetAllBookings(c.Request.Context(), query)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Bookings retrieved successfully", page)
}

// VerifyEventConsistency godoc
// @Summary      Compare an event's booked seats with its confirmed bookings
// @Tags         admin-events
// @Produce      json
// @Param        id path string true "Event ID"
// @Success      200 {object} response.StandardApiResponse{data=ConsistencyReport}
// @Security     BearerAuth
// @Router       /admin/events/{id}/consistency [get]
func (ctrl *Controller) VerifyEventConsistency(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid event ID", err.Error())
		return
	}

	report, err := ctrl.service.VerifyEventConsistency(c.Request.Context(), eventID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	msg := "Seat state is consistent"
	if !report.Consistent {
		msg = "Seat state disagrees with confirmed bookings"
	}
	response.Success(c, http.StatusOK, msg, report)
}
