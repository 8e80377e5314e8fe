package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/bookings"
	"github.com/Moses-lal/Smart-Event-Manager/internal/events"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/config"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/database"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/middleware"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Seeder struct {
	db     *database.DB
	events events.Service
}

func main() {
	fmt.Println("🌱 Starting seat booking seeder...")

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg, &events.Event{}, &bookings.Booking{})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{
		db:     db,
		events: events.NewService(events.NewRepository(db.PostgreSQL), logger.New()),
	}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	adminID, userID := uuid.New(), uuid.New()

	fmt.Println("\n🌱 Seeding events...")
	if err := seeder.SeedEvents(adminID); err != nil {
		log.Fatalf("Failed to seed events: %v", err)
	}

	fmt.Println("\n🔑 Development tokens (valid 24h):")
	if err := printToken(cfg.JWT.Secret, "ADMIN", adminID, middleware.RoleAdmin); err != nil {
		log.Fatalf("Failed to sign admin token: %v", err)
	}
	if err := printToken(cfg.JWT.Secret, "USER", userID, middleware.RoleUser); err != nil {
		log.Fatalf("Failed to sign user token: %v", err)
	}

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates bookings before the events they reference
func (s *Seeder) CleanDatabase() error {
	return database.WithTx(context.Background(), s.db.PostgreSQL, func(ctx context.Context) error {
		tx := database.Conn(ctx, s.db.PostgreSQL)
		for _, table := range []string{"bookings", "events"} {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *Seeder) SeedEvents(adminID uuid.UUID) error {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Hour)

	requests := []events.CreateEventRequest{
		{
			Title:       "Midnight Orchestra Live",
			Description: "A 60 seat listening room. VIP rows up front, premium in the middle.",
			Location:    "Blue Hall, Mumbai",
			Date:        now.AddDate(0, 0, 14),
			Price:       100,
			Category:    string(events.CategoryMusic),
			TotalSeats:  60,
		},
		{
			Title:       "Go Systems Conference",
			Description: "Talks on concurrency, storage engines and networking.",
			Location:    "Tech Park Auditorium, Bengaluru",
			Date:        now.AddDate(0, 1, 0),
			Price:       250,
			Category:    string(events.CategoryTech),
			TotalSeats:  200,
			ZoneLayout:  "Front:1-40:2.5,Middle:41-120:1.5,Back:121-200:1",
		},
		{
			Title:       "City Derby",
			Description: "Season opener. General admission with a small premium stand.",
			Location:    "Riverside Stadium, Pune",
			Date:        now.AddDate(0, 0, 3),
			Price:       40,
			Category:    string(events.CategorySports),
			TotalSeats:  500,
			ZoneLayout:  "Stand:1-100:1.75,General:101-500:1",
		},
		{
			Title:       "Street Food Night",
			Description: "Tasting tables, every seat at the same price.",
			Location:    "Harbour Market, Goa",
			Date:        now.AddDate(0, 0, 7),
			Price:       15,
			Category:    string(events.CategoryFood),
			TotalSeats:  30,
			ZoneLayout:  "Table:1-30:1",
		},
	}

	for _, req := range requests {
		event, err := s.events.CreateEvent(ctx, adminID, req)
		if err != nil {
			return fmt.Errorf("failed to create event %q: %w", req.Title, err)
		}
		fmt.Printf("    ✅ Created event: %s (%s, %d seats)\n", event.Title, event.ID, event.TotalSeats)
	}

	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}
	return nil
}

func printToken(secret, label string, userID uuid.UUID, role string) error {
	token, err := middleware.GenerateAccessToken(secret, userID, role, 24*time.Hour)
	if err != nil {
		return err
	}
	fmt.Printf("  %s %s\n    %s\n", label, userID, token)
	return nil
}
