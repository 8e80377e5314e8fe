package bookings

import (
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/events"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking is one confirmed or cancelled seat selection on an event.
type Booking struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EventID     uuid.UUID      `gorm:"type:uuid;index;not null" json:"event_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	SeatNumbers events.SeatSet `gorm:"type:jsonb;not null" json:"seat_numbers"`
	Quantity    int            `gorm:"not null" json:"quantity"`
	TotalPrice  float64        `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Status      Status         `gorm:"type:varchar(20);not null;default:'confirmed';check:status IN ('confirmed', 'cancelled')" json:"status"`
	BookingRef  string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"booking_ref"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`

	Event *events.Event `gorm:"foreignKey:EventID;constraint:OnDelete:RESTRICT;" json:"event,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusConfirmed
	}
	return nil
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// OwnedBy reports whether userID made the booking.
func (b *Booking) OwnedBy(userID uuid.UUID) bool {
	return b.UserID == userID
}
