package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/config"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/database"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouter_RejectsBadPricingZones(t *testing.T) {
	cfg := config.Load()
	cfg.Pricing.DefaultZones = "VIP:10-1:3"

	_, err := NewRouter(Dependencies{Config: cfg, DB: &database.DB{}, Logger: logger.Discard()})
	assert.Error(t, err)
}

func TestHealthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Load()

	r, err := NewRouter(Dependencies{Config: cfg, DB: &database.DB{}, Logger: logger.Discard()})
	require.NoError(t, err)

	engine := gin.New()
	r.setupHealthRoutes(engine)

	for _, path := range []string{"/health", "/ping", "/status"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
}
