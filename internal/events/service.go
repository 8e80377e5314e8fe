package events

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/pricing"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/constants"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/cache"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	// Service dependency injection
	SetCacheService(cacheService cache.Service)
	SetEventBookings(bookings EventBookings)

	CreateEvent(ctx context.Context, adminID uuid.UUID, req CreateEventRequest) (*EventResponse, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	UpdateEvent(ctx context.Context, id, adminID uuid.UUID, req UpdateEventRequest) (*EventResponse, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	ListEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error)
	ListPublicEvents(ctx context.Context, page, limit int) (*PaginatedPublicEvents, error)
}

// EventBookings is the part of the bookings repository that event deletion
// needs. Injected after construction to avoid an import cycle.
type EventBookings interface {
	CountConfirmedByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
	// DeleteCancelledByEvent removes the event's cancelled bookings so the
	// event row can be deleted.
	DeleteCancelledByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
}

type service struct {
	repo           Repository
	cacheService   cache.Service
	eventBookings  EventBookings
	log            *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		repo: repo,
		log:  log.Component("events"),
	}
}

// SetCacheService injects the cache service dependency
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) SetEventBookings(bookings EventBookings) {
	s.eventBookings = bookings
}

func (s *service) invalidatePublicListing(ctx context.Context) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.DeletePattern(ctx, constants.PATTERN_INVALIDATE_PUBLIC_EVENTS); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate public event cache", "error", err)
	}
}

func parseZoneLayout(raw string, totalSeats int) (pricing.Layout, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	layout, err := pricing.ParseLayout(raw)
	if err != nil {
		return nil, err
	}
	if last := layout.LastSeat(); last != 0 && last < totalSeats {
		return nil, fmt.Errorf("%w: zones end at seat %d but the event has %d seats",
			pricing.ErrInvalidLayout, last, totalSeats)
	}
	return layout, nil
}

func (s *service) CreateEvent(ctx context.Context, adminID uuid.UUID, req CreateEventRequest) (*EventResponse, error) {
	layout, err := parseZoneLayout(req.ZoneLayout, req.TotalSeats)
	if err != nil {
		return nil, err
	}

	category := Category(req.Category)
	if category == "" {
		category = CategoryOther
	}
	status := Status(req.Status)
	if status == "" {
		status = StatusUpcoming
	}

	event := &Event{
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		Date:           req.Date,
		Price:          req.Price,
		Category:       category,
		Status:         status,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
		BookedSeats:    SeatSet{},
		ZoneLayout:     layout,
		CreatedBy:      adminID,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.log.LogEventCreated(ctx, event.ID.String(), adminID.String(), event.TotalSeats)
	s.invalidatePublicListing(ctx)

	resp := event.ToResponse()
	return &resp, nil
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := event.ToResponse()
	return &resp, nil
}

func (s *service) UpdateEvent(ctx context.Context, id, adminID uuid.UUID, req UpdateEventRequest) (*EventResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.TotalSeats != nil && *req.TotalSeats != current.TotalSeats {
		return nil, ErrTotalSeatsImmutable
	}

	updates := map[string]interface{}{
		"updated_by": adminID,
		"updated_at": time.Now(),
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Date != nil {
		updates["date"] = *req.Date
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.ZoneLayout != nil {
		layout, err := parseZoneLayout(*req.ZoneLayout, current.TotalSeats)
		if err != nil {
			return nil, err
		}
		updates["zone_layout"] = layout
	}

	event, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	s.invalidatePublicListing(ctx)

	resp := event.ToResponse()
	return &resp, nil
}

// DeleteEvent refuses while confirmed bookings exist. Cancelled bookings
// are removed together with the event.
func (s *service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	var purged int64
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetByID(txCtx, id); err != nil {
			return err
		}

		if s.eventBookings != nil {
			count, err := s.eventBookings.CountConfirmedByEvent(txCtx, id)
			if err != nil {
				return fmt.Errorf("failed to count bookings: %w", err)
			}
			if count > 0 {
				return fmt.Errorf("%w (%d confirmed)", ErrEventHasBookings, count)
			}

			purged, err = s.eventBookings.DeleteCancelledByEvent(txCtx, id)
			if err != nil {
				return fmt.Errorf("failed to remove cancelled bookings: %w", err)
			}
		}

		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "Event Deleted", "event_id", id.String(), "cancelled_bookings_removed", purged)
	s.invalidatePublicListing(ctx)
	return nil
}

func (s *service) ListEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error) {
	query.normalize()

	events, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	out := make([]EventResponse, len(events))
	for i := range events {
		out[i] = events[i].ToResponse()
	}

	return &PaginatedEvents{
		Events:     out,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages(total, query.Limit),
	}, nil
}

func (s *service) ListPublicEvents(ctx context.Context, page, limit int) (*PaginatedPublicEvents, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	fetch := func() (interface{}, error) {
		events, total, err := s.repo.ListPublic(ctx, page, limit)
		if err != nil {
			return nil, err
		}
		out := make([]PublicEventResponse, len(events))
		for i := range events {
			out[i] = events[i].ToPublicResponse()
		}
		return &PaginatedPublicEvents{
			Events:     out,
			TotalCount: total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		}, nil
	}

	if s.cacheService == nil {
		result, err := fetch()
		if err != nil {
			return nil, fmt.Errorf("failed to list public events: %w", err)
		}
		return result.(*PaginatedPublicEvents), nil
	}

	var result PaginatedPublicEvents
	key := constants.BuildPublicEventsKey(page, limit)
	if err := s.cacheService.GetOrSet(ctx, key, constants.TTL_PUBLIC_EVENTS, fetch, &result); err != nil {
		return nil, fmt.Errorf("failed to list public events: %w", err)
	}
	return &result, nil
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
