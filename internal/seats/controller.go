package seats

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/events"
	"github.com/Moses-lal/Smart-Event-Manager/internal/pricing"
	"github.com/Moses-lal/Smart-Event-Manager/internal/realtime"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventReader loads the event a seat request refers to.
type EventReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

type Controller struct {
	inventory  *Inventory
	hub        *realtime.Hub
	events     EventReader
	calculator *pricing.Calculator
	heartbeat  time.Duration
}

func NewController(inventory *Inventory, hub *realtime.Hub, eventReader EventReader, calculator *pricing.Calculator, heartbeat time.Duration) *Controller {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &Controller{
		inventory:  inventory,
		hub:        hub,
		events:     eventReader,
		calculator: calculator,
		heartbeat:  heartbeat,
	}
}

// RespondError maps seat inventory errors to HTTP responses.
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSeatConflict):
		response.Error(c, http.StatusConflict, err.Error(), gin.H{"unavailable_seats": UnavailableSeats(err)})
	case errors.Is(err, ErrInvalidSeat), errors.Is(err, ErrNoSeats):
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrBookingClosed):
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, ErrEventNotFound):
		response.Error(c, http.StatusNotFound, err.Error(), nil)
	default:
		response.Error(c, http.StatusInternalServerError, "Something went wrong, please try again", nil)
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

// GetSeatState godoc
// @Summary      Current seat map of an event
// @Tags         seats
// @Produce      json
// @Param        id path string true "Event ID"
// @Success      200 {object} response.StandardApiResponse{data=Snapshot}
// @Failure      404 {object} response.StandardApiResponse
// @Router       /events/{id}/seats [get]
func (ctrl *Controller) GetSeatState(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	snap, err := ctrl.inventory.State(c.Request.Context(), eventID)
	if err != nil {
		RespondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Seat state retrieved successfully", snap)
}

// QuoteSeats godoc
// @Summary      Price a seat selection
// @Tags         seats
// @Produce      json
// @Param        id    path  string true "Event ID"
// @Param        seats query string true "Comma separated seat numbers"
// @Success      200 {object} response.StandardApiResponse{data=QuoteResponse}
// @Failure      400 {object} response.StandardApiResponse
// @Router       /events/{id}/seats/quote [get]
func (ctrl *Controller) QuoteSeats(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	seatNumbers, err := parseSeatList(c.Query("seats"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "seats must be a comma separated list of seat numbers", err.Error())
		return
	}
	if len(seatNumbers) == 0 {
		RespondError(c, ErrNoSeats)
		return
	}

	event, err := ctrl.events.GetByID(c.Request.Context(), eventID)
	if err != nil {
		RespondError(c, err)
		return
	}
	requested, err := ValidateSelection(seatNumbers, event.TotalSeats)
	if err != nil {
		RespondError(c, err)
		return
	}

	breakdown, err := ctrl.calculator.Total(event.ZoneLayout, requested, event.Price)
	if err != nil {
		RespondError(c, err)
		return
	}

	unavailable := []int{}
	for _, seat := range requested {
		if event.BookedSeats.Contains(seat) {
			unavailable = append(unavailable, seat)
		}
	}

	response.Success(c, http.StatusOK, "Seat quote calculated", QuoteResponse{
		EventID:     event.ID.String(),
		BasePrice:   event.Price,
		Seats:       breakdown.Seats,
		Total:       breakdown.Total,
		Unavailable: unavailable,
	})
}

// StreamSeatState godoc
// @Summary      Live seat map over Server-Sent Events
// @Description  Sends the current seat state, then a seats_updated frame after every change and a heartbeat frame when idle.
// @Tags         seats
// @Produce      text/event-stream
// @Param        id path string true "Event ID"
// @Router       /events/{id}/seats/stream [get]
func (ctrl *Controller) StreamSeatState(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	// Subscribe before reading state so no change falls between the two
	sub, err := ctrl.hub.Subscribe(eventID)
	if err != nil {
		response.Error(c, http.StatusServiceUnavailable, "Live updates are unavailable", nil)
		return
	}
	defer ctrl.hub.Unsubscribe(sub)

	ctx := c.Request.Context()
	snap, err := ctrl.inventory.State(ctx, eventID)
	if err != nil {
		RespondError(c, err)
		return
	}

	// Content-Type comes from the SSE renderer
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	lastVersion := snap.Version
	c.SSEvent("seats_updated", snap.Message(time.Now().UTC()))
	c.Writer.Flush()

	heartbeat := time.NewTicker(ctrl.heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-sub.C():
			if !ok {
				return false
			}
			if msg.Version <= lastVersion {
				return true
			}
			lastVersion = msg.Version
			c.SSEvent("seats_updated", msg)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", gin.H{"time": time.Now().UTC(), "dropped": sub.Dropped()})
			return true
		}
	})
}

func parseSeatList(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
