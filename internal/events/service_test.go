package events

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/pricing"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]*Event
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{events: make(map[uuid.UUID]*Event)}
}

func (r *fakeRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	backup := make(map[uuid.UUID]*Event, len(r.events))
	for id, e := range r.events {
		cp := *e
		backup[id] = &cp
	}
	r.mu.Unlock()

	if err := fn(ctx); err != nil {
		r.mu.Lock()
		r.events = backup
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *fakeRepo) Create(_ context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()
	cp := *event
	r.events[event.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeRepo) Update(_ context.Context, id uuid.UUID, updates map[string]interface{}) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	for k, v := range updates {
		switch k {
		case "title":
			e.Title = v.(string)
		case "price":
			e.Price = v.(float64)
		case "status":
			e.Status = Status(v.(string))
		case "zone_layout":
			e.ZoneLayout = v.(pricing.Layout)
		}
	}
	cp := *e
	return &cp, nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeRepo) all() []Event {
	out := make([]Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, *e)
	}
	return out
}

func (r *fakeRepo) List(_ context.Context, query EventListQuery) ([]Event, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.all()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *fakeRepo) ListPublic(_ context.Context, page, limit int) ([]Event, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.all() {
		if e.Status != StatusCancelled {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, int64(len(out)), nil
}

// fakeBookings tracks booking statuses per event.
type fakeBookings struct {
	mu        sync.Mutex
	confirmed map[uuid.UUID]int64
	cancelled map[uuid.UUID]int64
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{
		confirmed: make(map[uuid.UUID]int64),
		cancelled: make(map[uuid.UUID]int64),
	}
}

func (f *fakeBookings) CountConfirmedByEvent(_ context.Context, eventID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmed[eventID], nil
}

func (f *fakeBookings) DeleteCancelledByEvent(_ context.Context, eventID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.cancelled[eventID]
	delete(f.cancelled, eventID)
	return n, nil
}

func validCreateRequest() CreateEventRequest {
	return CreateEventRequest{
		Title:       "Rooftop Jazz",
		Description: "An evening of jazz",
		Location:    "Nairobi",
		Date:        time.Now().Add(72 * time.Hour),
		Price:       100,
		TotalSeats:  60,
	}
}

func TestService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(), logger.Discard())
	adminID := uuid.New()

	t.Run("initialises seat state and defaults", func(t *testing.T) {
		resp, err := svc.CreateEvent(ctx, adminID, validCreateRequest())
		require.NoError(t, err)

		assert.Equal(t, 60, resp.TotalSeats)
		assert.Equal(t, 60, resp.AvailableSeats)
		assert.Empty(t, resp.BookedSeats)
		assert.Equal(t, CategoryOther, resp.Category)
		assert.Equal(t, StatusUpcoming, resp.Status)
		assert.Equal(t, adminID.String(), resp.CreatedBy)
	})

	t.Run("custom zone layout", func(t *testing.T) {
		req := validCreateRequest()
		req.ZoneLayout = "Front:1-10:2.5,Back:11-:1"

		resp, err := svc.CreateEvent(ctx, adminID, req)
		require.NoError(t, err)
		require.Len(t, resp.ZoneLayout, 2)
		assert.Equal(t, "Front", resp.ZoneLayout[0].Label)
	})

	t.Run("layout that leaves seats unpriced", func(t *testing.T) {
		req := validCreateRequest()
		req.ZoneLayout = "Front:1-10:2,Back:11-40:1"

		_, err := svc.CreateEvent(ctx, adminID, req)
		assert.ErrorIs(t, err, pricing.ErrInvalidLayout)
	})
}

func TestService_UpdateEvent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo(), logger.Discard())
	adminID := uuid.New()

	created, err := svc.CreateEvent(ctx, adminID, validCreateRequest())
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	t.Run("total seats are immutable", func(t *testing.T) {
		seats := 80
		_, err := svc.UpdateEvent(ctx, id, adminID, UpdateEventRequest{TotalSeats: &seats})
		assert.ErrorIs(t, err, ErrTotalSeatsImmutable)
	})

	t.Run("same total seats is accepted", func(t *testing.T) {
		seats := 60
		title := "Rooftop Jazz II"
		resp, err := svc.UpdateEvent(ctx, id, adminID, UpdateEventRequest{TotalSeats: &seats, Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, resp.Title)
	})

	t.Run("missing event", func(t *testing.T) {
		title := "nope"
		_, err := svc.UpdateEvent(ctx, uuid.New(), adminID, UpdateEventRequest{Title: &title})
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestService_DeleteEvent(t *testing.T) {
	ctx := context.Background()
	adminID := uuid.New()

	setup := func(t *testing.T) (Service, *fakeBookings, uuid.UUID) {
		t.Helper()
		svc := NewService(newFakeRepo(), logger.Discard())
		bookings := newFakeBookings()
		svc.SetEventBookings(bookings)

		created, err := svc.CreateEvent(ctx, adminID, validCreateRequest())
		require.NoError(t, err)
		return svc, bookings, uuid.MustParse(created.ID)
	}

	t.Run("refused while confirmed bookings exist", func(t *testing.T) {
		svc, bookings, id := setup(t)
		bookings.confirmed[id] = 2
		bookings.cancelled[id] = 1

		err := svc.DeleteEvent(ctx, id)
		assert.ErrorIs(t, err, ErrEventHasBookings)
		assert.Equal(t, int64(1), bookings.cancelled[id], "cancelled bookings kept when delete is refused")

		_, err = svc.GetEvent(ctx, id)
		assert.NoError(t, err)
	})

	t.Run("cancelled bookings removed with the event", func(t *testing.T) {
		svc, bookings, id := setup(t)
		bookings.cancelled[id] = 3

		require.NoError(t, svc.DeleteEvent(ctx, id))

		_, err := svc.GetEvent(ctx, id)
		assert.ErrorIs(t, err, ErrEventNotFound)
		assert.Zero(t, bookings.cancelled[id])
	})

	t.Run("deleted when unbooked", func(t *testing.T) {
		svc, _, id := setup(t)

		require.NoError(t, svc.DeleteEvent(ctx, id))
		_, err := svc.GetEvent(ctx, id)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("unknown event", func(t *testing.T) {
		svc, _, _ := setup(t)
		assert.ErrorIs(t, svc.DeleteEvent(ctx, uuid.New()), ErrEventNotFound)
	})
}

func TestService_ListPublicEvents(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo, logger.Discard())
	adminID := uuid.New()

	later := validCreateRequest()
	later.Title = "Later Show"
	later.Date = time.Now().Add(240 * time.Hour)
	sooner := validCreateRequest()
	sooner.Title = "Sooner Show"
	cancelled := validCreateRequest()
	cancelled.Title = "Called Off"
	cancelled.Status = string(StatusCancelled)

	for _, req := range []CreateEventRequest{later, sooner, cancelled} {
		_, err := svc.CreateEvent(ctx, adminID, req)
		require.NoError(t, err)
	}

	page, err := svc.ListPublicEvents(ctx, 1, 10)
	require.NoError(t, err)

	require.Len(t, page.Events, 2)
	assert.Equal(t, "Sooner Show", page.Events[0].Title)
	assert.Equal(t, "Later Show", page.Events[1].Title)
	assert.Equal(t, 1, page.TotalPages)
}
