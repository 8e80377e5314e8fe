package database

import (
	"fmt"

	"gorm.io/gorm"
)

type constraint struct {
	table string
	name  string
	sql   string
}

// Seat counters must always agree with the booked seat list. The
// application enforces this too, the check makes a bad write fail loudly.
var seatConstraints = []constraint{
	{
		table: "events",
		name:  "chk_events_seat_accounting",
		sql: `ALTER TABLE events ADD CONSTRAINT chk_events_seat_accounting
			CHECK (available_seats = total_seats - jsonb_array_length(booked_seats))`,
	},
	{
		table: "bookings",
		name:  "chk_bookings_quantity",
		sql: `ALTER TABLE bookings ADD CONSTRAINT chk_bookings_quantity
			CHECK (quantity = jsonb_array_length(seat_numbers) AND quantity >= 1)`,
	},
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_bookings_event_status ON bookings (event_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user_created ON bookings (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_events_status_date ON events (status, date)`,
}

// MigrateConstraints adds check constraints and indexes. Safe to run on every boot.
func MigrateConstraints(db *gorm.DB) error {
	for _, c := range seatConstraints {
		if !db.Migrator().HasTable(c.table) {
			continue
		}

		var exists bool
		err := db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, c.name).
			Scan(&exists).Error
		if err != nil {
			return fmt.Errorf("failed to look up constraint %s: %w", c.name, err)
		}
		if exists {
			continue
		}
		if err := db.Exec(c.sql).Error; err != nil {
			return fmt.Errorf("failed to add constraint %s: %w", c.name, err)
		}
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
