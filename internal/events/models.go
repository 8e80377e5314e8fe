package events

import (
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/pricing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryMusic  Category = "music"
	CategoryTech   Category = "tech"
	CategorySports Category = "sports"
	CategoryFood   Category = "food"
	CategoryArt    Category = "art"
	CategoryOther  Category = "other"
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// BookingOpen reports whether new seats can be reserved. Releases are allowed in any status.
func (s Status) BookingOpen() bool {
	return s == StatusUpcoming || s == StatusOngoing
}

type Event struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string    `json:"title" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	Location    string    `json:"location" gorm:"not null;size:255"`
	Date        time.Time `json:"date" gorm:"not null"`
	Price       float64   `json:"price" gorm:"not null;check:price > 0"`
	Category    Category  `json:"category" gorm:"type:varchar(20);not null;default:'other'"`
	Status      Status    `json:"status" gorm:"type:varchar(20);not null;default:'upcoming'"`

	// Seat state. Only the seat inventory writes these columns.
	TotalSeats     int            `json:"total_seats" gorm:"not null;check:total_seats > 0"`
	AvailableSeats int            `json:"available_seats" gorm:"not null;check:available_seats >= 0"`
	BookedSeats    SeatSet        `json:"booked_seats" gorm:"type:jsonb;not null;default:'[]'"`
	SeatVersion    int64          `json:"seat_version" gorm:"not null;default:0"`
	ZoneLayout     pricing.Layout `json:"zone_layout,omitempty" gorm:"type:jsonb"`

	CreatedBy uuid.UUID  `json:"created_by" gorm:"type:uuid;not null"`
	UpdatedBy *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.BookedSeats == nil {
		e.BookedSeats = SeatSet{}
	}
	return nil
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}

type EventResponse struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Location       string         `json:"location"`
	Date           time.Time      `json:"date"`
	Price          float64        `json:"price"`
	Category       Category       `json:"category"`
	Status         Status         `json:"status"`
	TotalSeats     int            `json:"total_seats"`
	AvailableSeats int            `json:"available_seats"`
	BookedSeats    SeatSet        `json:"booked_seats"`
	ZoneLayout     pricing.Layout `json:"zone_layout,omitempty"`
	CreatedBy      string         `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PublicEventResponse omits booked seat numbers and the creator.
type PublicEventResponse struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Location       string         `json:"location"`
	Date           time.Time      `json:"date"`
	Price          float64        `json:"price"`
	Category       Category       `json:"category"`
	Status         Status         `json:"status"`
	TotalSeats     int            `json:"total_seats"`
	AvailableSeats int            `json:"available_seats"`
	ZoneLayout     pricing.Layout `json:"zone_layout,omitempty"`
}

type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,min=3,max=255"`
	Description string    `json:"description" binding:"required,max=2000"`
	Location    string    `json:"location" binding:"required,min=2,max=255"`
	Date        time.Time `json:"date" binding:"required"`
	Price       float64   `json:"price" binding:"required,gt=0"`
	Category    string    `json:"category" binding:"omitempty,event_category"`
	Status      string    `json:"status" binding:"omitempty,event_status"`
	TotalSeats  int       `json:"total_seats" binding:"required,min=1,max=100000"`
	// Zones in "Label:from-to:multiplier" form; empty means the default layout
	ZoneLayout string `json:"zone_layout"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=3,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Location    *string    `json:"location" binding:"omitempty,min=2,max=255"`
	Date        *time.Time `json:"date"`
	Price       *float64   `json:"price" binding:"omitempty,gt=0"`
	Category    *string    `json:"category" binding:"omitempty,event_category"`
	Status      *string    `json:"status" binding:"omitempty,event_status"`
	TotalSeats  *int       `json:"total_seats"`
	ZoneLayout  *string    `json:"zone_layout"`
}

type EventListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Category string `form:"category" binding:"omitempty,event_category"`
	Status   string `form:"status" binding:"omitempty,event_status"`
}

func (q *EventListQuery) normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
}

type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

type PaginatedPublicEvents struct {
	Events     []PublicEventResponse `json:"events"`
	TotalCount int64                 `json:"total_count"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"total_pages"`
}

func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:             e.ID.String(),
		Title:          e.Title,
		Description:    e.Description,
		Location:       e.Location,
		Date:           e.Date,
		Price:          e.Price,
		Category:       e.Category,
		Status:         e.Status,
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats,
		BookedSeats:    e.BookedSeats.Clone(),
		ZoneLayout:     e.ZoneLayout,
		CreatedBy:      e.CreatedBy.String(),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func (e *Event) ToPublicResponse() PublicEventResponse {
	return PublicEventResponse{
		ID:             e.ID.String(),
		Title:          e.Title,
		Description:    e.Description,
		Location:       e.Location,
		Date:           e.Date,
		Price:          e.Price,
		Category:       e.Category,
		Status:         e.Status,
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats,
		ZoneLayout:     e.ZoneLayout,
	}
}
