package seats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrMirrorMiss = errors.New("seat state not mirrored")

// Mirror is a read replica of committed seat state.
type Mirror interface {
	Publish(ctx context.Context, snap Snapshot) error
	Get(ctx context.Context, eventID uuid.UUID) (*Snapshot, error)
	Invalidate(ctx context.Context, eventID uuid.UUID) error
}

// Lua script for a version-fenced write. Snapshots are published after the
// inventory lock is released, so two writers can arrive out of order; the
// older one must not overwrite the newer.
const luaFencedSeatStateSet = `
-- KEYS[1] = seat state key
-- ARGV[1] = version
-- ARGV[2] = snapshot json
-- ARGV[3] = ttl_seconds

local current = redis.call("HGET", KEYS[1], "version")
if current and tonumber(current) >= tonumber(ARGV[1]) then
    return 0
end

redis.call("HSET", KEYS[1], "version", ARGV[1], "state", ARGV[2])
redis.call("EXPIRE", KEYS[1], tonumber(ARGV[3]))
return 1
`

var fencedSeatStateSet = redis.NewScript(luaFencedSeatStateSet)

// RedisMirror keeps the latest snapshot of each event in a Redis hash.
type RedisMirror struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

func NewRedisMirror(client redis.UniversalClient, ttl time.Duration) *RedisMirror {
	if ttl <= 0 {
		ttl = constants.TTL_SEAT_STATE
	}
	return &RedisMirror{redis: client, ttl: ttl}
}

// Publish stores snap unless a newer version is already mirrored.
func (m *RedisMirror) Publish(ctx context.Context, snap Snapshot) error {
	if m.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode seat snapshot: %w", err)
	}

	keys := []string{constants.BuildSeatStateKey(snap.EventID.String())}
	args := []interface{}{
		snap.Version,
		string(payload),
		strconv.Itoa(int(m.ttl.Seconds())),
	}

	_, err = m.redis.EvalSha(ctx, fencedSeatStateSet.Hash(), keys, args...).Result()
	if err != nil && redis.HasErrorPrefix(err, "NOSCRIPT") {
		// Script cache was flushed; Eval loads it again
		_, err = m.redis.Eval(ctx, luaFencedSeatStateSet, keys, args...).Result()
	}
	if err != nil {
		return fmt.Errorf("failed to mirror seat state: %w", err)
	}
	return nil
}

func (m *RedisMirror) Get(ctx context.Context, eventID uuid.UUID) (*Snapshot, error) {
	if m.redis == nil {
		return nil, ErrMirrorMiss
	}

	raw, err := m.redis.HGet(ctx, constants.BuildSeatStateKey(eventID.String()), "state").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMirrorMiss
		}
		return nil, fmt.Errorf("failed to read mirrored seat state: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode mirrored seat state: %w", err)
	}
	return &snap, nil
}

func (m *RedisMirror) Invalidate(ctx context.Context, eventID uuid.UUID) error {
	if m.redis == nil {
		return nil
	}
	return m.redis.Del(ctx, constants.BuildSeatStateKey(eventID.String())).Err()
}

// PreloadScripts loads the Lua script so the first Publish hits EvalSha.
func (m *RedisMirror) PreloadScripts(ctx context.Context) error {
	if m.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	if _, err := m.redis.ScriptLoad(ctx, luaFencedSeatStateSet).Result(); err != nil {
		return fmt.Errorf("failed to load seat state script: %w", err)
	}
	return nil
}
