package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with the booking service's logging helpers.
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout, configured from LOG_LEVEL and the gin mode.
func New() *Logger {
	return NewWithWriter(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// NewWithWriter creates a logger that writes to w at the given level.
func NewWithWriter(w io.Writer, levelStr string) *Logger {
	level := getLogLevel(levelStr)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Text is easier to read locally, JSON is what the log shipper expects
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component returns a logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("component", name))}
}

// WithUserID adds user ID to logger context
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("user_id", userID))}
}

// WithEventID adds event ID to logger context
func (l *Logger) WithEventID(eventID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("event_id", eventID))}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("error", err.Error()))}
}

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	attrs := []any{
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	}
	if userID, ok := c.Get("user_id"); ok {
		attrs = append(attrs, slog.Any("user_id", userID))
	}

	switch status := c.Writer.Status(); {
	case status >= 500:
		l.Logger.ErrorContext(c.Request.Context(), "HTTP Request", attrs...)
	case status >= 400:
		l.Logger.WarnContext(c.Request.Context(), "HTTP Request", attrs...)
	default:
		l.Logger.InfoContext(c.Request.Context(), "HTTP Request", attrs...)
	}
}

// Business logic logging methods

func (l *Logger) LogEventCreated(ctx context.Context, eventID, adminID string, totalSeats int) {
	l.Logger.InfoContext(ctx,
		"Event Created",
		slog.String("event_id", eventID),
		slog.String("admin_id", adminID),
		slog.Int("total_seats", totalSeats),
	)
}

func (l *Logger) LogBookingCreated(ctx context.Context, bookingID, eventID, userID string, seats []int, totalPrice float64) {
	l.Logger.InfoContext(ctx,
		"Booking Created",
		slog.String("booking_id", bookingID),
		slog.String("event_id", eventID),
		slog.String("user_id", userID),
		slog.Any("seats", seats),
		slog.Float64("total_price", totalPrice),
	)
}

func (l *Logger) LogBookingCancelled(ctx context.Context, bookingID, eventID, actorID string) {
	l.Logger.InfoContext(ctx,
		"Booking Cancelled",
		slog.String("booking_id", bookingID),
		slog.String("event_id", eventID),
		slog.String("actor_id", actorID),
	)
}

// LogSeatConflict records a rejected reservation. Conflicts are expected under
// load, so they are logged at info level.
func (l *Logger) LogSeatConflict(ctx context.Context, eventID string, requested, unavailable []int) {
	l.Logger.InfoContext(ctx,
		"Seat Conflict",
		slog.String("event_id", eventID),
		slog.Any("requested", requested),
		slog.Any("unavailable", unavailable),
	)
}

// LogInvariantViolation flags seat state that needs an operator.
func (l *Logger) LogInvariantViolation(ctx context.Context, eventID, detail string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)+2)
	args = append(args, slog.String("event_id", eventID), slog.String("detail", detail))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, "Seat Inventory Invariant Violation", args...)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)+1)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
