package seats_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/events"
	"github.com/Moses-lal/Smart-Event-Manager/internal/pricing"
	"github.com/Moses-lal/Smart-Event-Manager/internal/realtime"
	"github.com/Moses-lal/Smart-Event-Manager/internal/seats"
	"github.com/Moses-lal/Smart-Event-Manager/internal/seats/seatstest"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type eventReader map[uuid.UUID]*events.Event

func (r eventReader) GetByID(_ context.Context, id uuid.UUID) (*events.Event, error) {
	e, ok := r[id]
	if !ok {
		return nil, events.ErrEventNotFound
	}
	return e, nil
}

// gin's Stream needs a ResponseWriter that implements http.CloseNotifier
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}

type seatFixture struct {
	router    *gin.Engine
	inventory *seats.Inventory
	hub       *realtime.Hub
	event     *events.Event
}

func newSeatFixture(t *testing.T) *seatFixture {
	t.Helper()

	event := &events.Event{
		ID:          uuid.New(),
		Title:       "Symphony",
		Price:       100,
		Status:      events.StatusUpcoming,
		TotalSeats:  60,
		BookedSeats: events.SeatSet{2},
	}
	store := seatstest.NewStore()
	store.Put(&seats.State{
		EventID:        event.ID,
		Status:         event.Status,
		TotalSeats:     60,
		AvailableSeats: 59,
		BookedSeats:    events.SeatSet{2},
	})

	inv := seats.NewInventory(store, seats.WithLogger(logger.Discard()))
	hub := realtime.NewHub(8, logger.Discard())
	t.Cleanup(hub.Close)

	ctrl := seats.NewController(inv, hub, eventReader{event.ID: event}, pricing.NewCalculator(nil), time.Hour)
	router := gin.New()
	seats.SetupSeatRoutes(router.Group("/api/v1"), ctrl)

	return &seatFixture{router: router, inventory: inv, hub: hub, event: event}
}

func (f *seatFixture) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestController_GetSeatState(t *testing.T) {
	f := newSeatFixture(t)

	w := f.get("/api/v1/events/" + f.event.ID.String() + "/seats")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data seats.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []int{2}, body.Data.BookedSeats)
	assert.Equal(t, 59, body.Data.AvailableSeats)
	assert.Equal(t, 60, body.Data.TotalSeats)

	assert.Equal(t, http.StatusNotFound, f.get("/api/v1/events/"+uuid.NewString()+"/seats").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/api/v1/events/not-a-uuid/seats").Code)
}

func TestController_QuoteSeats(t *testing.T) {
	f := newSeatFixture(t)
	base := "/api/v1/events/" + f.event.ID.String() + "/seats/quote"

	t.Run("zone breakdown", func(t *testing.T) {
		w := f.get(base + "?seats=5,20,50,2")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data seats.QuoteResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 900.0, body.Data.Total)
		assert.Equal(t, []int{2}, body.Data.Unavailable)
		require.Len(t, body.Data.Seats, 4)
		assert.Equal(t, "VIP", body.Data.Seats[0].Zone)
	})

	t.Run("past the last seat", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, f.get(base+"?seats=61").Code)
	})

	t.Run("garbage list", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, f.get(base+"?seats=1,x").Code)
	})

	t.Run("empty list", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, f.get(base).Code)
	})
}

func TestController_StreamSeatState(t *testing.T) {
	f := newSeatFixture(t)
	ctx := context.Background()

	w := &closeNotifyingRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+f.event.ID.String()+"/seats/stream", nil)

	done := make(chan struct{})
	go func() {
		f.router.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return f.hub.SubscriberCount(f.event.ID) == 1
	}, time.Second, 5*time.Millisecond)

	snap, err := f.inventory.Reserve(ctx, f.event.ID, []int{7, 8})
	require.NoError(t, err)
	f.hub.Publish(snap.Message(time.Now()))
	f.hub.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after hub shutdown")
	}

	body := w.Body.String()
	assert.Contains(t, body, "event:seats_updated")
	assert.Contains(t, body, `"booked_seats":[2,7,8]`)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"),
		"content type %q", w.Header().Get("Content-Type"))
}
