package bookings

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/events"
	"github.com/Moses-lal/Smart-Event-Manager/internal/notifications"
	"github.com/Moses-lal/Smart-Event-Manager/internal/pricing"
	"github.com/Moses-lal/Smart-Event-Manager/internal/realtime"
	"github.com/Moses-lal/Smart-Event-Manager/internal/seats"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/middleware"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/utils/response"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, actor middleware.Identity) (*BookingResponse, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID, actor middleware.Identity) (*BookingResponse, error)
	GetMyBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error)
	GetAllBookings(ctx context.Context, query BookingListQuery) (*PaginatedBookings, error)
	VerifyEventConsistency(ctx context.Context, eventID uuid.UUID) (*ConsistencyReport, error)
}

// EventReader loads the event a booking is made against.
type EventReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

type service struct {
	repo       Repository
	events     EventReader
	inventory  *seats.Inventory
	calculator *pricing.Calculator
	hub        *realtime.Hub
	publisher  notifications.Publisher
	log        *logger.Logger
	now        func() time.Time

	orphanRecheck time.Duration
}

type Deps struct {
	Repo       Repository
	Events     EventReader
	Inventory  *seats.Inventory
	Calculator *pricing.Calculator
	Hub        *realtime.Hub
	// Publisher may be nil, in which case no booking events leave the process
	Publisher notifications.Publisher
	Logger    *logger.Logger

	// OrphanRecheck is how long the consistency check waits before
	// confirming orphaned seats. Defaults to defaultOrphanRecheck.
	OrphanRecheck time.Duration
}

// A reservation commits before its booking row is inserted, so a booked seat
// can briefly have no booking. Orphans are confirmed by a second read.
const defaultOrphanRecheck = 250 * time.Millisecond

func NewService(deps Deps) Service {
	log := deps.Logger
	if log == nil {
		log = logger.GetDefault()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	orphanRecheck := deps.OrphanRecheck
	if orphanRecheck <= 0 {
		orphanRecheck = defaultOrphanRecheck
	}
	return &service{
		repo:       deps.Repo,
		events:     deps.Events,
		inventory:  deps.Inventory,
		calculator: deps.Calculator,
		hub:        deps.Hub,
		publisher:  publisher,
		log:        log.Component("bookings"),
		now:        func() time.Time { return time.Now().UTC() },

		orphanRecheck: orphanRecheck,
	}
}

// CreateBooking reserves the seats, then persists the booking. The seats are
// released again if the booking cannot be written.
func (s *service) CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingResponse, error) {
	if len(req.SeatNumbers) == 0 {
		return nil, seats.ErrNoSeats
	}

	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	requested, err := seats.ValidateSelection(req.SeatNumbers, event.TotalSeats)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.calculator.Total(event.ZoneLayout, requested, event.Price)
	if err != nil {
		return nil, err
	}

	bookingRef, err := generateBookingReference(s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	snap, err := s.inventory.Reserve(ctx, event.ID, requested)
	if err != nil {
		return nil, err
	}

	booking := &Booking{
		EventID:     event.ID,
		UserID:      userID,
		SeatNumbers: events.NewSeatSet(requested...),
		Quantity:    len(requested),
		TotalPrice:  breakdown.Total,
		Status:      StatusConfirmed,
		BookingRef:  bookingRef,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		s.compensate(ctx, event.ID, requested, err)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	booking.Event = event

	s.fanOut(*snap)
	s.log.LogBookingCreated(ctx, booking.ID.String(), event.ID.String(), userID.String(), requested, booking.TotalPrice)
	s.notify(ctx, booking, notifications.BookingEventConfirmed, nil, snap.Version)

	resp := booking.ToResponse()
	resp.Seats = breakdown.Seats
	resp.SeatState = snap
	return &resp, nil
}

// compensate undoes a reservation whose booking row was never written.
func (s *service) compensate(ctx context.Context, eventID uuid.UUID, seatNumbers []int, cause error) {
	ctx = context.WithoutCancel(ctx)

	s.log.ErrorWithContext(ctx, "booking insert failed, releasing reserved seats", cause, map[string]interface{}{
		"event_id": eventID.String(),
		"seats":    seatNumbers,
	})

	snap, err := s.inventory.Release(ctx, eventID, seatNumbers)
	if err != nil {
		s.log.LogInvariantViolation(ctx, eventID.String(), "seats reserved without a booking could not be released", map[string]interface{}{
			"seats": seatNumbers,
			"error": err.Error(),
		})
		return
	}
	s.fanOut(*snap)
}

// CancelBooking releases a booking's seats and marks it cancelled in one
// transaction. Only the owner or an admin may cancel.
func (s *service) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor middleware.Identity) (*BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !booking.OwnedBy(actor.UserID) {
		return nil, ErrForbidden
	}
	if booking.IsCancelled() {
		return nil, ErrAlreadyCancelled
	}

	cancelledAt := s.now()
	snap, err := s.inventory.ReleaseIf(ctx, booking.EventID, booking.SeatNumbers,
		func(txCtx context.Context) error {
			return s.repo.LockConfirmed(txCtx, booking.ID)
		},
		func(txCtx context.Context) error {
			return s.repo.MarkCancelled(txCtx, booking.ID, cancelledAt)
		},
	)
	if err != nil {
		return nil, err
	}

	booking.Status = StatusCancelled
	booking.CancelledAt = &cancelledAt

	s.fanOut(*snap)
	s.log.LogBookingCancelled(ctx, booking.ID.String(), booking.EventID.String(), actor.UserID.String())
	s.notify(ctx, booking, notifications.BookingEventCancelled, &actor.UserID, snap.Version)

	resp := booking.ToResponse()
	resp.SeatState = snap
	return &resp, nil
}

func (s *service) GetBooking(ctx context.Context, bookingID uuid.UUID, actor middleware.Identity) (*BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !booking.OwnedBy(actor.UserID) {
		return nil, ErrForbidden
	}
	resp := booking.ToResponse()
	return &resp, nil
}

func (s *service) GetMyBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error) {
	query.normalize()
	list, total, err := s.repo.ListByUser(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toPage(list, total, query), nil
}

func (s *service) GetAllBookings(ctx context.Context, query BookingListQuery) (*PaginatedBookings, error) {
	query.normalize()
	list, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toPage(list, total, query), nil
}

func toPage(list []Booking, total int64, query BookingListQuery) *PaginatedBookings {
	out := make([]BookingResponse, 0, len(list))
	for i := range list {
		out = append(out, list[i].ToResponse())
	}
	return &PaginatedBookings{
		Bookings:   out,
		Pagination: response.NewPagination(query.Page, query.Limit, total),
	}
}

// VerifyEventConsistency reports whether the event's booked seats are exactly
// the seats of its confirmed bookings. Mismatches are logged, never repaired.
//
// Each pass reads the event and its bookings from one snapshot. Seats that
// look orphaned are only reported if they are still orphaned after
// orphanRecheck, which covers bookings between reserve and insert.
func (s *service) VerifyEventConsistency(ctx context.Context, eventID uuid.UUID) (*ConsistencyReport, error) {
	report, err := s.consistencyPass(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if len(report.Orphaned) > 0 {
		timer := time.NewTimer(s.orphanRecheck)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		second, err := s.consistencyPass(ctx, eventID)
		if err != nil {
			return nil, err
		}
		second.Orphaned = intersectSeats(report.Orphaned, second.Orphaned)
		second.Consistent = second.isConsistent()
		report = second
	}

	if !report.Consistent {
		s.log.LogInvariantViolation(ctx, eventID.String(), "booked seats disagree with confirmed bookings", map[string]interface{}{
			"missing_from_event": report.MissingFromEvent,
			"orphaned":           report.Orphaned,
			"double_booked":      report.DoubleBooked,
			"count_mismatch":     report.CountMismatch,
		})
	}
	return report, nil
}

func (s *service) consistencyPass(ctx context.Context, eventID uuid.UUID) (*ConsistencyReport, error) {
	var event *events.Event
	var sets []events.SeatSet
	err := s.repo.ReadSnapshot(ctx, func(snapCtx context.Context) error {
		var err error
		if event, err = s.events.GetByID(snapCtx, eventID); err != nil {
			return err
		}
		if sets, err = s.repo.ConfirmedSeatsByEvent(snapCtx, eventID); err != nil {
			return fmt.Errorf("failed to load confirmed bookings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	holders := make(map[int]int)
	union := events.SeatSet{}
	for _, set := range sets {
		for _, seat := range set {
			holders[seat]++
		}
		union = union.Union(set)
	}

	report := &ConsistencyReport{
		EventID:          event.ID.String(),
		TotalSeats:       event.TotalSeats,
		AvailableSeats:   event.AvailableSeats,
		BookedSeats:      event.BookedSeats.Clone(),
		BookingSeats:     union,
		MissingFromEvent: []int(union.Without(event.BookedSeats)),
		Orphaned:         []int(event.BookedSeats.Without(union)),
		DoubleBooked:     []int{},
		CountMismatch:    event.AvailableSeats != event.TotalSeats-len(event.BookedSeats),
	}
	for _, seat := range union {
		if holders[seat] > 1 {
			report.DoubleBooked = append(report.DoubleBooked, seat)
		}
	}
	report.Consistent = report.isConsistent()
	return report, nil
}

func intersectSeats(a, b []int) []int {
	out := []int{}
	for _, seat := range events.SeatSet(b) {
		if events.SeatSet(a).Contains(seat) {
			out = append(out, seat)
		}
	}
	return out
}

// fanOut hands a committed snapshot to live subscribers. It never blocks.
func (s *service) fanOut(snap seats.Snapshot) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(snap.Message(s.now()))
}

func (s *service) notify(ctx context.Context, booking *Booking, kind notifications.BookingEventType, actorID *uuid.UUID, version int64) {
	msg := notifications.NewBookingEvent(kind)
	msg.BookingID = booking.ID
	msg.BookingRef = booking.BookingRef
	msg.EventID = booking.EventID
	msg.UserID = booking.UserID
	msg.ActorID = actorID
	msg.SeatNumbers = booking.SeatNumbers.Clone()
	msg.TotalPrice = booking.TotalPrice
	msg.SeatVersion = version

	if err := s.publisher.PublishBookingEvent(ctx, msg); err != nil {
		s.log.WarnContext(ctx, "failed to publish booking event",
			"booking_id", booking.ID.String(), "type", string(kind), "error", err)
	}
}

// generateBookingReference returns BK-YYYYMMDD-XXXXXX with six random letters.
func generateBookingReference(now time.Time) (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)
	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}
	return fmt.Sprintf("BK-%s-%s", now.Format("20060102"), string(randomPart)), nil
}
