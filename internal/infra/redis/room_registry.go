package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/domain"
)

const maxCodeAttempts = 64

// claimScript takes a free code or renews one this instance already owns.
// KEYS[1] = code key, ARGV[1] = instance id, ARGV[2] = ttl in ms.
var claimScript = redis.NewScript(`
local owner = redis.call("GET", KEYS[1])
if owner == false then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
	return 1
end
if owner == ARGV[1] then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	return 1
end
return 0
`)

// releaseScript deletes a code key only while this instance owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RoomRegistry is a Redis-aware implementation of app.RoomRegistry.
// Notes:
//   - Room state lives in a local map so every mutation stays behind the
//     in-process room lock.
//   - Codes are leased in Redis under the instance id, so two instances
//     sharing a Redis never hand out the same live code, and an instance
//     only ever renews or releases its own leases.
type RoomRegistry struct {
	client   *redis.Client
	ttl      time.Duration
	newCode  func() (string, error)
	instance string
	logger   *zap.Logger

	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomRegistry(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RoomRegistry {
	return NewRoomRegistryWithCodes(client, ttl, logger, domain.NewRoomCode)
}

// NewRoomRegistryWithCodes allows deterministic codes in tests.
func NewRoomRegistryWithCodes(client *redis.Client, ttl time.Duration, logger *zap.Logger, gen func() (string, error)) *RoomRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RoomRegistry{
		client:   client,
		ttl:      ttl,
		newCode:  gen,
		instance: uuid.NewString(),
		logger:   logger,
		rooms:    make(map[string]*app.Room),
	}
}

func (r *RoomRegistry) Create(ctx context.Context, hostID string, host domain.Profile, cfg domain.RoomConfig) (*app.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := r.newCode()
		if err != nil {
			return nil, err
		}
		code = domain.NormalizeCode(code)
		if existing, ok := r.rooms[code]; ok && existing.HoldsCode() {
			continue
		}

		ok, err := r.claim(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("reserve room code: %w", err)
		}
		if !ok {
			continue
		}
		room := app.NewRoom(domain.NewRoom(code, hostID, host, cfg, time.Now()))
		r.rooms[code] = room
		return room, nil
	}
	return nil, fmt.Errorf("failed to generate unique room code")
}

func (r *RoomRegistry) claim(ctx context.Context, code string) (bool, error) {
	n, err := claimScript.Run(ctx, r.client, []string{r.key(code)}, r.instance, r.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RoomRegistry) release(ctx context.Context, code string) {
	if err := releaseScript.Run(ctx, r.client, []string{r.key(code)}, r.instance).Err(); err != nil {
		r.logger.Warn("release room code failed", zap.String("code", code), zap.Error(err))
	}
}

func (r *RoomRegistry) Get(code string) (*app.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[domain.NormalizeCode(code)]
	return room, ok
}

// Refresh renews the lease of a live room and releases the code of a room
// that reached a terminal state.
func (r *RoomRegistry) Refresh(ctx context.Context, code string) {
	room, ok := r.Get(code)
	if !ok {
		return
	}
	if !room.HoldsCode() {
		r.release(ctx, room.Code())
		return
	}
	ok, err := r.claim(ctx, room.Code())
	if err != nil {
		r.logger.Warn("renew room code failed", zap.String("code", room.Code()), zap.Error(err))
		return
	}
	if !ok {
		r.logger.Warn("room code lease lost", zap.String("code", room.Code()))
	}
}

func (r *RoomRegistry) RemoveIfAbandoned(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code = domain.NormalizeCode(code)
	room, ok := r.rooms[code]
	if !ok || !room.CloseIfAbandoned() {
		return
	}
	delete(r.rooms, code)
	r.release(context.Background(), code)
	r.logger.Info("room deleted", zap.String("code", code))
}

func (r *RoomRegistry) Rooms() []*app.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*app.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out
}

func (r *RoomRegistry) key(code string) string {
	return "battle:room:" + code
}
