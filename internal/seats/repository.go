package seats

import (
	"context"
	"errors"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/events"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists seat state. SaveState is a conditional write: it only
// succeeds while the stored version still equals expectedVersion.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LoadState(ctx context.Context, eventID uuid.UUID) (*State, error)
	SaveState(ctx context.Context, state *State, expectedVersion int64) error
}

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

func (s *store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTx(ctx, s.db, fn)
}

// LoadState reads the seat columns of an event. Inside a transaction the
// row is locked until commit.
func (s *store) LoadState(ctx context.Context, eventID uuid.UUID) (*State, error) {
	q := database.Conn(ctx, s.db).
		Select("id", "status", "total_seats", "available_seats", "booked_seats", "seat_version")
	if database.TxFromContext(ctx) != nil {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var event events.Event
	if err := q.Where("id = ?", eventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return stateFromEvent(&event), nil
}

func (s *store) SaveState(ctx context.Context, state *State, expectedVersion int64) error {
	result := database.Conn(ctx, s.db).
		Model(&events.Event{}).
		Where("id = ? AND seat_version = ?", state.EventID, expectedVersion).
		Updates(map[string]interface{}{
			"booked_seats":    state.BookedSeats,
			"available_seats": state.AvailableSeats,
			"seat_version":    state.Version,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}
