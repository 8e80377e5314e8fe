package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/seats"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/config"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/constants"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/middleware"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     json.RawMessage `json:"errors"`
}

type attempt struct {
	User     uuid.UUID
	Status   int
	Duration time.Duration
	Err      error
}

type ContentionSuite struct {
	baseURL string
	secret  string
	client  *http.Client
}

// Fires concurrent bookings for the same seats at a running server and checks
// that exactly one wins and the Redis seat mirror matches the committed state.
func main() {
	eventFlag := flag.String("event", "", "event id to book against")
	seatFlag := flag.Int("seat", 1, "seat number every client asks for")
	clients := flag.Int("clients", 20, "number of concurrent clients")
	baseURL := flag.String("url", "http://localhost:8080/api/v1", "API base URL")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	eventID, err := uuid.Parse(*eventFlag)
	if err != nil {
		log.Fatalf("❌ -event must be an event id: %v", err)
	}

	suite := &ContentionSuite{
		baseURL: *baseURL,
		secret:  cfg.JWT.Secret,
		client:  &http.Client{Timeout: 30 * time.Second},
	}

	fmt.Println("🧪 Starting seat contention test...")
	fmt.Println("===================================")

	before, err := suite.seatState(eventID)
	if err != nil {
		log.Fatalf("❌ Failed to read seat state: %v", err)
	}
	fmt.Printf("📊 Before: version %d, %d/%d available\n", before.Version, before.AvailableSeats, before.TotalSeats)

	results := suite.race(eventID, *seatFlag, *clients)

	var created, conflicts, other int
	for _, r := range results {
		switch {
		case r.Err != nil:
			other++
			fmt.Printf("   ❌ %s: %v\n", r.User, r.Err)
		case r.Status == http.StatusCreated:
			created++
			fmt.Printf("   ✅ %s won seat %d in %v\n", r.User, *seatFlag, r.Duration)
		case r.Status == http.StatusConflict:
			conflicts++
		default:
			other++
			fmt.Printf("   ⚠️  %s got HTTP %d\n", r.User, r.Status)
		}
	}

	after, err := suite.seatState(eventID)
	if err != nil {
		log.Fatalf("❌ Failed to read seat state: %v", err)
	}
	fmt.Printf("📊 After: version %d, %d/%d available\n", after.Version, after.AvailableSeats, after.TotalSeats)
	fmt.Printf("📈 %d created, %d conflicts, %d other\n", created, conflicts, other)

	wasFree := !contains(before.BookedSeats, *seatFlag)
	switch {
	case wasFree && created != 1:
		log.Fatalf("❌ Expected exactly one booking for a free seat, got %d", created)
	case !wasFree && created != 0:
		log.Fatalf("❌ Seat was already booked but %d bookings succeeded", created)
	case !contains(after.BookedSeats, *seatFlag):
		log.Fatalf("❌ Seat %d is not booked after the run", *seatFlag)
	}

	if cfg.Redis.Enabled {
		if err := checkMirror(cfg, eventID, after); err != nil {
			log.Fatalf("❌ Mirror check failed: %v", err)
		}
		fmt.Println("✅ Redis seat mirror matches committed state")
	}

	fmt.Println("\n🎉 Contention test passed!")
}

func (s *ContentionSuite) race(eventID uuid.UUID, seat, clients int) []attempt {
	body, _ := json.Marshal(map[string]interface{}{
		"event_id":     eventID,
		"seat_numbers": []int{seat},
	})

	results := make([]attempt, clients)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range results {
		user := uuid.New()
		token, err := middleware.GenerateAccessToken(s.secret, user, middleware.RoleUser, time.Hour)
		if err != nil {
			results[i] = attempt{User: user, Err: err}
			continue
		}

		wg.Add(1)
		go func(i int, user uuid.UUID, token string) {
			defer wg.Done()
			<-start
			results[i] = s.book(user, token, body)
		}(i, user, token)
	}

	close(start)
	wg.Wait()
	return results
}

func (s *ContentionSuite) book(user uuid.UUID, token string, body []byte) attempt {
	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/bookings", bytes.NewReader(body))
	if err != nil {
		return attempt{User: user, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	began := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return attempt{User: user, Duration: time.Since(began), Err: err}
	}
	defer resp.Body.Close()
	return attempt{User: user, Status: resp.StatusCode, Duration: time.Since(began)}
}

func (s *ContentionSuite) seatState(eventID uuid.UUID) (*seats.Snapshot, error) {
	resp, err := s.client.Get(fmt.Sprintf("%s/events/%s/seats", s.baseURL, eventID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, env.Message)
	}

	var snap seats.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode seat state: %w", err)
	}
	return &snap, nil
}

func checkMirror(cfg *config.Config, eventID uuid.UUID, want *seats.Snapshot) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}
	version, err := client.HGet(ctx, constants.BuildSeatStateKey(eventID.String()), "version").Int64()
	if err == redis.Nil {
		// Nothing mirrored yet is fine, reads fall back to the database
		return nil
	}
	if err != nil {
		return err
	}
	if version < want.Version {
		return fmt.Errorf("mirror at version %d, committed state at %d", version, want.Version)
	}
	return nil
}

func contains(booked []int, seat int) bool {
	for _, s := range booked {
		if s == seat {
			return true
		}
	}
	return false
}
