package app

import (
	"sync"
	"time"

	"quiz-battle-service/internal/domain"
)

// EventType labels a room broadcast.
type EventType string

const (
	EventRoster    EventType = "roster"
	EventStarted   EventType = "started"
	EventStandings EventType = "standings"
	EventFinished  EventType = "finished"
	EventCancelled EventType = "cancelled"
)

// Event is pushed to room subscribers after every accepted mutation.
type Event struct {
	Type      EventType         `json:"type"`
	Room      domain.RoomView   `json:"room"`
	Standings []domain.Standing `json:"standings,omitempty"`
	At        time.Time         `json:"at"`
}

// Room serializes all access to one battle aggregate. Every read-modify-write
// runs under mu, so capacity and duplicate-answer checks cannot interleave.
type Room struct {
	code        string
	now         func() time.Time
	mu          sync.Mutex
	state       *domain.Room
	closed      bool
	subscribers map[chan Event]struct{}
}

// NewRoom wraps a freshly created aggregate.
func NewRoom(state *domain.Room) *Room {
	return NewRoomWithClock(state, time.Now)
}

// NewRoomWithClock allows deterministic timestamps in tests.
func NewRoomWithClock(state *domain.Room, now func() time.Time) *Room {
	return &Room{
		code:        state.Code,
		now:         now,
		state:       state,
		subscribers: make(map[chan Event]struct{}),
	}
}

// Code is immutable and safe to read without locking.
func (r *Room) Code() string {
	return r.code
}

// HoldsCode reports whether the room still owns its code.
func (r *Room) HoldsCode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed && r.state.Status.HoldsCode()
}

// Summary returns the listing projection and whether the room is publicly listed.
func (r *Room) Summary() (domain.RoomSummary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.state.Listed() {
		return domain.RoomSummary{}, false
	}
	return r.state.Summary(), true
}

// View returns the sanitized detail projection.
func (r *Room) View() domain.RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.View()
}

// CloseIfAbandoned marks a waiting room with no players as closed so late
// callers holding a stale pointer observe RoomNotFound. Registries call it
// before dropping the room.
func (r *Room) CloseIfAbandoned() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeIfAbandonedLocked()
}

func (r *Room) closeIfAbandonedLocked() bool {
	if r.closed {
		return true
	}
	if r.state.IsEmpty() && r.state.Status == domain.StatusWaiting {
		r.closed = true
		for ch := range r.subscribers {
			delete(r.subscribers, ch)
			close(ch)
		}
		return true
	}
	return false
}

// update runs fn under the room lock and broadcasts on success.
func (r *Room) update(kind EventType, fn func(state *domain.Room, now time.Time) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrRoomNotFound
	}
	if err := fn(r.state, r.now()); err != nil {
		return err
	}
	r.broadcastLocked(kind)
	// An emptied waiting room closes before the lock is released, so a
	// concurrent join cannot land in it ahead of the registry cleanup.
	r.closeIfAbandonedLocked()
	return nil
}

// read runs fn under the room lock without broadcasting.
func (r *Room) read(fn func(state *domain.Room) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrRoomNotFound
	}
	return fn(r.state)
}

func (r *Room) subscribe() (<-chan Event, func(), error) {
	ch := make(chan Event, 8)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, nil, domain.ErrRoomNotFound
	}
	r.subscribers[ch] = struct{}{}
	ch <- r.eventLocked(EventRoster)
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel, nil
}

func (r *Room) broadcastLocked(kind EventType) {
	ev := r.eventLocked(kind)
	for ch := range r.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest update so a slow subscriber never blocks the room.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (r *Room) eventLocked(kind EventType) Event {
	if r.state.Status == domain.StatusCancelled {
		kind = EventCancelled
	}
	ev := Event{Type: kind, Room: r.state.View(), At: r.now()}
	if r.state.Status == domain.StatusInProgress || r.state.Status == domain.StatusFinished {
		ev.Standings = domain.LiveStandings(r.state.Players)
	}
	return ev
}
