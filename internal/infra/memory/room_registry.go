package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/domain"
)

// maxCodeAttempts bounds code sampling; 32^6 codes make exhaustion unrealistic.
const maxCodeAttempts = 64

// CodeGenerator samples candidate room codes.
type CodeGenerator func() (string, error)

// RoomRegistry is an in-memory implementation of app.RoomRegistry.
type RoomRegistry struct {
	mu      sync.RWMutex
	rooms   map[string]*app.Room
	newCode CodeGenerator
	logger  *zap.Logger
}

func NewRoomRegistry(logger *zap.Logger) *RoomRegistry {
	return NewRoomRegistryWithCodes(logger, domain.NewRoomCode)
}

// NewRoomRegistryWithCodes allows deterministic codes in tests.
func NewRoomRegistryWithCodes(logger *zap.Logger, gen CodeGenerator) *RoomRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomRegistry{
		rooms:   make(map[string]*app.Room),
		newCode: gen,
		logger:  logger,
	}
}

func (r *RoomRegistry) Create(_ context.Context, hostID string, host domain.Profile, cfg domain.RoomConfig) (*app.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := r.newCode()
		if err != nil {
			return nil, err
		}
		code = domain.NormalizeCode(code)
		// Rooms in a terminal state give their code back.
		if existing, ok := r.rooms[code]; ok && existing.HoldsCode() {
			continue
		}
		room := app.NewRoom(domain.NewRoom(code, hostID, host, cfg, time.Now()))
		r.rooms[code] = room
		return room, nil
	}
	return nil, fmt.Errorf("failed to generate unique room code")
}

func (r *RoomRegistry) Get(code string) (*app.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[domain.NormalizeCode(code)]
	return room, ok
}

func (r *RoomRegistry) RemoveIfAbandoned(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code = domain.NormalizeCode(code)
	room, ok := r.rooms[code]
	if !ok {
		return
	}
	if room.CloseIfAbandoned() {
		delete(r.rooms, code)
		r.logger.Info("room deleted", zap.String("code", code))
	}
}

// Refresh is a no-op: terminal rooms give their code back through HoldsCode.
func (r *RoomRegistry) Refresh(context.Context, string) {}

func (r *RoomRegistry) Rooms() []*app.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*app.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out
}
