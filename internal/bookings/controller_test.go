package bookings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/middleware"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "bookings-controller-secret"

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     json.RawMessage `json:"errors"`
}

type apiFixture struct {
	*fixture
	router *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	f := newFixture(t, 60)
	router := gin.New()
	SetupBookingRoutes(router.Group("/api/v1"), NewController(f.svc), testSecret)
	return &apiFixture{fixture: f, router: router}
}

func token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	tok, err := middleware.GenerateAccessToken(testSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f *apiFixture) do(t *testing.T, method, path, auth string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestController_CreateBooking(t *testing.T) {
	f := newAPIFixture(t)
	alice := token(t, uuid.New(), middleware.RoleUser)
	bob := token(t, uuid.New(), middleware.RoleUser)

	w, env := f.do(t, http.MethodPost, "/api/v1/bookings", alice, gin.H{
		"event_id":     f.eventID,
		"seat_numbers": []int{1, 2},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created BookingResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, []int{1, 2}, created.SeatNumbers)
	assert.Equal(t, 600.0, created.TotalPrice)

	w, env = f.do(t, http.MethodPost, "/api/v1/bookings", bob, gin.H{
		"event_id":     f.eventID,
		"seat_numbers": []int{2, 3},
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "error", env.Status)
	assert.JSONEq(t, `{"unavailable_seats":[2]}`, string(env.Errors))

	w, _ = f.do(t, http.MethodPost, "/api/v1/bookings", bob, gin.H{"event_id": f.eventID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/v1/bookings", bob, gin.H{
		"event_id":     f.eventID,
		"seat_numbers": []int{61},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/v1/bookings", bob, gin.H{
		"event_id":     uuid.New(),
		"seat_numbers": []int{4},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/v1/bookings", "", gin.H{
		"event_id":     f.eventID,
		"seat_numbers": []int{4},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestController_CancelBooking(t *testing.T) {
	f := newAPIFixture(t)
	ownerID := uuid.New()
	owner := token(t, ownerID, middleware.RoleUser)
	stranger := token(t, uuid.New(), middleware.RoleUser)

	booked := f.book(t, ownerID, 5)
	path := "/api/v1/bookings/" + booked.ID + "/cancel"

	w, _ := f.do(t, http.MethodPut, path, stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := f.do(t, http.MethodPut, path, owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cancelled BookingResponse
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))
	assert.Equal(t, StatusCancelled, cancelled.Status)

	w, _ = f.do(t, http.MethodPut, path, owner, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = f.do(t, http.MethodPut, "/api/v1/bookings/"+uuid.NewString()+"/cancel", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.do(t, http.MethodPut, "/api/v1/bookings/not-a-uuid/cancel", owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestController_Listings(t *testing.T) {
	f := newAPIFixture(t)
	ownerID := uuid.New()
	owner := token(t, ownerID, middleware.RoleUser)
	admin := token(t, uuid.New(), middleware.RoleAdmin)
	f.book(t, ownerID, 1)

	w, env := f.do(t, http.MethodGet, "/api/v1/bookings/me", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page PaginatedBookings
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Bookings, 1)

	w, _ = f.do(t, http.MethodGet, "/api/v1/bookings/me?status=pending", owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/admin/bookings", owner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/admin/bookings?status=confirmed", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = f.do(t, http.MethodGet, "/api/v1/admin/events/"+f.eventID.String()+"/consistency", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report ConsistencyReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.True(t, report.Consistent)
}
