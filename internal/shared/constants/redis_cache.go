package constants

import (
	"fmt"
	"time"
)

// Redis keys follow seatbooking:{module}:{operation}:{identifier}

const (
	CACHE_PREFIX = "seatbooking"
)

// ================== EVENTS MODULE ==================

const (
	CACHE_KEY_PUBLIC_EVENTS = CACHE_PREFIX + ":events:public" // + :page:X:limit:Y

	TTL_PUBLIC_EVENTS = 30 * time.Second
)

// ================== SEATS MODULE ==================

const (
	// Mirror of the committed seat map, written after each inventory commit
	CACHE_KEY_SEAT_STATE = CACHE_PREFIX + ":seats:state:" // + event-id

	TTL_SEAT_STATE = 5 * time.Minute
)

// ================== RATE LIMITING ==================

const (
	CACHE_KEY_RATE_LIMIT = CACHE_PREFIX + ":rate_limit:" // + type:ip
)

// ================== CACHE INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_PUBLIC_EVENTS = CACHE_KEY_PUBLIC_EVENTS + "*"
)

func BuildPublicEventsKey(page, limit int) string {
	return fmt.Sprintf("%s:page:%d:limit:%d", CACHE_KEY_PUBLIC_EVENTS, page, limit)
}

func BuildSeatStateKey(eventID string) string {
	return CACHE_KEY_SEAT_STATE + eventID
}

func BuildRateLimitKey(limitType, ip string) string {
	return CACHE_KEY_RATE_LIMIT + limitType + ":" + ip
}
