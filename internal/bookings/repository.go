package bookings

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

type Repository interface {
	// ReadSnapshot runs fn with every read on ctx seeing one committed state.
	ReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, booking *Booking) error
	// GetByID loads a booking with its event summary.
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// LockConfirmed row-locks a confirmed booking for the rest of the
	// transaction on ctx. A booking that is no longer confirmed yields
	// ErrAlreadyCancelled.
	LockConfirmed(ctx context.Context, id uuid.UUID) error
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error

	ListByUser(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)
	List(ctx context.Context, query BookingListQuery) ([]Booking, int64, error)

	CountConfirmedByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
	DeleteCancelledByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
	ConfirmedSeatsByEvent(ctx context.Context, eventID uuid.UUID) ([]events.SeatSet, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithReadSnapshot(ctx, r.db, fn)
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	return database.Conn(ctx, r.db).Create(booking).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := database.Conn(ctx, r.db).
		Preload("Event").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) LockConfirmed(ctx context.Context, id uuid.UUID) error {
	var booking Booking
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "status").
		Where("id = ? AND status = ?", id, StatusConfirmed).
		Take(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAlreadyCancelled
	}
	return err
}

func (r *repository) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := database.Conn(ctx, r.db).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, StatusConfirmed).
		Updates(map[string]interface{}{
			"status":       StatusCancelled,
			"cancelled_at": at,
			"updated_at":   at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyCancelled
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	base := database.Conn(ctx, r.db).
		Model(&Booking{}).
		Where("user_id = ?", userID)
	return r.page(base, query)
}

func (r *repository) List(ctx context.Context, query BookingListQuery) ([]Booking, int64, error) {
	return r.page(database.Conn(ctx, r.db).Model(&Booking{}), query)
}

func (r *repository) page(base *gorm.DB, query BookingListQuery) ([]Booking, int64, error) {
	query.normalize()
	base = applyFilters(base, query)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []Booking
	err := base.
		Preload("Event").
		Order("created_at DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&bookings).Error
	return bookings, total, err
}

func (r *repository) CountConfirmedByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&Booking{}).
		Where("event_id = ? AND status = ?", eventID, StatusConfirmed).
		Count(&count).Error
	return count, err
}

func (r *repository) DeleteCancelledByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	result := database.Conn(ctx, r.db).
		Where("event_id = ? AND status = ?", eventID, StatusCancelled).
		Delete(&Booking{})
	return result.RowsAffected, result.Error
}

func (r *repository) ConfirmedSeatsByEvent(ctx context.Context, eventID uuid.UUID) ([]events.SeatSet, error) {
	var rows []Booking
	err := database.Conn(ctx, r.db).
		Select("id", "seat_numbers").
		Where("event_id = ? AND status = ?", eventID, StatusConfirmed).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	sets := make([]events.SeatSet, 0, len(rows))
	for _, row := range rows {
		sets = append(sets, row.SeatNumbers)
	}
	return sets, nil
}

func applyFilters(query *gorm.DB, filters BookingListQuery) *gorm.DB {
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.EventID != "" {
		if eventID, err := uuid.Parse(filters.EventID); err == nil {
			query = query.Where("event_id = ?", eventID)
		}
	}
	return query
}
