package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/api/routes"
	_ "github.com/Moses-lal/Smart-Event-Manager/docs"
	"github.com/Moses-lal/Smart-Event-Manager/internal/bookings"
	"github.com/Moses-lal/Smart-Event-Manager/internal/events"
	"github.com/Moses-lal/Smart-Event-Manager/internal/notifications"
	"github.com/Moses-lal/Smart-Event-Manager/internal/realtime"
	"github.com/Moses-lal/Smart-Event-Manager/internal/seats"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/config"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/database"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/validation"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/logger"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// @title                       Seat Booking API
// @version                     1.0
// @description                 Seat inventory, zone pricing and live seat maps for events.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	appLogger := logger.NewWithWriter(os.Stdout, cfg.LogLevel)
	logger.SetDefault(appLogger)

	if envErr != nil {
		if cfg.IsProduction() || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	if err := validation.Register(); err != nil {
		appLogger.Error("failed to register validators", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.InitDB(cfg, &events.Event{}, &bookings.Booking{})
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Seat mirror in Redis; the inventory works without it
	var mirror seats.Mirror
	if redisClient := db.GetRedisClient(); redisClient != nil {
		redisMirror := seats.NewRedisMirror(redisClient, cfg.Seats.MirrorTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := redisMirror.PreloadScripts(ctx); err != nil {
			appLogger.Warn("failed to preload seat mirror script, it will load on first use", slog.Any("error", err))
		} else {
			appLogger.Info("Seat mirror script preloaded")
		}
		cancel()
		mirror = redisMirror
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled && db.GetRedisClient() != nil {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), cfg.RateLimit)
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("booking_critical_requests", cfg.RateLimit.BookingCriticalRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	publisher := newPublisher(cfg, appLogger)
	defer func() {
		if err := publisher.Close(); err != nil {
			appLogger.Error("failed to close booking event publisher", slog.Any("error", err))
		}
	}()

	hub := realtime.NewHub(cfg.Realtime.SubscriberBuffer, appLogger)

	appRouter, err := routes.NewRouter(routes.Dependencies{
		Config:    cfg,
		DB:        db,
		Hub:       hub,
		Publisher: publisher,
		Mirror:    mirror,
		Logger:    appLogger,
	})
	if err != nil {
		appLogger.Error("failed to build router", slog.Any("error", err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        setupEngine(appRouter, rateLimiter, appLogger),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("swagger", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.Port)),
			slog.String("version", Version),
			slog.String("build_time", BuildTime),
			slog.String("commit", GitCommit),
			slog.Bool("seat_mirror", mirror != nil),
			slog.Bool("rate_limiting", rateLimiter != nil),
			slog.Bool("kafka", cfg.Kafka.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	// Ends open seat streams so Shutdown does not wait on them
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func newPublisher(cfg *config.Config, log *logger.Logger) notifications.Publisher {
	if !cfg.Kafka.Enabled {
		log.Info("Kafka disabled, booking events stay in process")
		return notifications.NoopPublisher{}
	}

	producerCfg := notifications.DefaultKafkaProducerConfig()
	producerCfg.Brokers = cfg.Kafka.Brokers
	producerCfg.Topic = cfg.Kafka.Topic
	producerCfg.ClientID = cfg.Kafka.ClientID
	producerCfg.RetryMax = cfg.Kafka.RetryMax
	producerCfg.Timeout = cfg.Kafka.Timeout

	publisher, err := notifications.NewKafkaPublisher(producerCfg, log)
	if err != nil {
		log.Error("Failed to connect to Kafka, continuing without booking events", slog.Any("error", err))
		return notifications.NoopPublisher{}
	}
	log.Info("Kafka booking event publisher ready", slog.String("topic", producerCfg.Topic))
	return publisher
}

func setupEngine(appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter, appLogger *logger.Logger) *gin.Engine {
	engine := gin.New()

	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Last-Event-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter, appLogger))
	}

	appRouter.SetupRoutes(engine)
	return engine
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.LogHTTPRequest(c, time.Since(start))
	}
}
