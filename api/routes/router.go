// api/routes/router.go
package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/bookings"
	"github.com/Moses-lal/Smart-Event-Manager/internal/events"
	"github.com/Moses-lal/Smart-Event-Manager/internal/notifications"
	"github.com/Moses-lal/Smart-Event-Manager/internal/pricing"
	"github.com/Moses-lal/Smart-Event-Manager/internal/realtime"
	"github.com/Moses-lal/Smart-Event-Manager/internal/seats"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/config"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/database"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/cache"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const serviceName = "seat-booking-backend"

// Dependencies are the long-lived components built in main.
type Dependencies struct {
	Config    *config.Config
	DB        *database.DB
	Hub       *realtime.Hub
	Publisher notifications.Publisher
	// Mirror is nil when Redis is disabled
	Mirror seats.Mirror
	Logger *logger.Logger
}

// Router holds all route dependencies
type Router struct {
	deps       Dependencies
	calculator *pricing.Calculator
	startedAt  time.Time
}

// NewRouter creates a new router instance
func NewRouter(deps Dependencies) (*Router, error) {
	layout, err := pricing.ParseLayout(deps.Config.Pricing.DefaultZones)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICING_ZONES: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = logger.GetDefault()
	}
	return &Router{
		deps:       deps,
		calculator: pricing.NewCalculator(layout),
		startedAt:  time.Now(),
	}, nil
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.deps.Config.GetAPIBasePath())
	pg := r.deps.DB.GetPostgreSQL()
	jwtSecret := r.deps.Config.JWT.Secret
	log := r.deps.Logger

	// Events
	eventRepo := events.NewRepository(pg)
	eventService := events.NewService(eventRepo, log)
	if redisClient := r.deps.DB.GetRedisClient(); redisClient != nil {
		eventService.SetCacheService(cache.NewService(redisClient, log))
	}

	// Seat inventory
	opts := []seats.Option{
		seats.WithLogger(log),
		seats.WithMaxStaleRetries(r.deps.Config.Seats.MaxStaleRetries),
	}
	if r.deps.Mirror != nil {
		opts = append(opts, seats.WithMirror(r.deps.Mirror))
	}
	inventory := seats.NewInventory(seats.NewStore(pg), opts...)

	// Bookings
	bookingRepo := bookings.NewRepository(pg)
	eventService.SetEventBookings(bookingRepo)
	bookingService := bookings.NewService(bookings.Deps{
		Repo:       bookingRepo,
		Events:     eventRepo,
		Inventory:  inventory,
		Calculator: r.calculator,
		Hub:        r.deps.Hub,
		Publisher:  r.deps.Publisher,
		Logger:     log,
	})

	events.SetupEventRoutes(api, events.NewController(eventService), jwtSecret)
	seats.SetupSeatRoutes(api, seats.NewController(inventory, r.deps.Hub, eventRepo, r.calculator, r.deps.Config.Realtime.HeartbeatInterval))
	bookings.SetupBookingRoutes(api, bookings.NewController(bookingService), jwtSecret)
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.deps.DB.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   serviceName,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   serviceName,
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.deps.Config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.deps.Config.APIVersion,
			"uptime":      time.Since(r.startedAt).Round(time.Second).String(),
			"seat_mirror": r.deps.Mirror != nil,
			"timestamp":   time.Now(),
		})
	})
}
