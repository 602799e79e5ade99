package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"quiz-battle-service/internal/domain"
)

// DefaultCountdown is the gap between start and the client-facing startedAt.
const DefaultCountdown = 5 * time.Second

// RoomRegistry owns the namespace of room codes.
type RoomRegistry interface {
	// Create registers a new waiting room under a code no live room holds.
	Create(ctx context.Context, hostID string, host domain.Profile, cfg domain.RoomConfig) (*Room, error)
	Get(code string) (*Room, bool)
	// RemoveIfAbandoned drops a waiting room that has lost its last player.
	RemoveIfAbandoned(code string)
	// Refresh is called after every accepted mutation. Registries that lease
	// codes extend the lease of a live room and release a terminal one.
	Refresh(ctx context.Context, code string)
	Rooms() []*Room
}

// QuestionSetProvider samples questions from the bank. It returns fewer than
// count when the bank cannot satisfy the filter, never padding or repeating.
type QuestionSetProvider interface {
	Sample(ctx context.Context, filter domain.QuestionFilter, count int) ([]domain.QuestionSource, error)
}

// QuestionResolver turns bank references into snapshots.
type QuestionResolver interface {
	GetQuestion(ctx context.Context, id string) (domain.QuestionSnapshot, error)
}

// EventPublisher forwards finished battles to downstream consumers.
type EventPublisher interface {
	PublishBattleFinished(ctx context.Context, result domain.BattleResult) error
}

// StartResult is returned to the host after a successful start.
type StartResult struct {
	Questions []domain.QuestionPreview `json:"questions"`
	StartedAt time.Time                `json:"startedAt"`
}

// EndResult carries the final outcome and per-player reward status.
type EndResult struct {
	Result  domain.BattleResult `json:"result"`
	Rewards []RewardOutcome     `json:"rewards"`
}

// BattleService contains the battle-room use cases.
type BattleService struct {
	rooms     RoomRegistry
	questions QuestionSetProvider
	resolver  QuestionResolver
	rewards   *RewardDistributor
	events    EventPublisher
	logger    *zap.Logger
	countdown time.Duration
}

// Option customizes a BattleService.
type Option func(*BattleService)

func WithLogger(logger *zap.Logger) Option {
	return func(s *BattleService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithEventPublisher(events EventPublisher) Option {
	return func(s *BattleService) {
		if events != nil {
			s.events = events
		}
	}
}

func WithCountdown(d time.Duration) Option {
	return func(s *BattleService) {
		if d >= 0 {
			s.countdown = d
		}
	}
}

func NewBattleService(rooms RoomRegistry, questions QuestionSetProvider, resolver QuestionResolver, rewards *RewardDistributor, opts ...Option) *BattleService {
	s := &BattleService{
		rooms:     rooms,
		questions: questions,
		resolver:  resolver,
		rewards:   rewards,
		events:    noopPublisher{},
		logger:    zap.NewNop(),
		countdown: DefaultCountdown,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRoom opens a waiting room with the caller as host.
func (s *BattleService) CreateRoom(ctx context.Context, hostID string, host domain.Profile, cfg domain.RoomConfig) (domain.RoomView, error) {
	room, err := s.rooms.Create(ctx, hostID, host, cfg)
	if err != nil {
		return domain.RoomView{}, err
	}
	s.logger.Info("room created", zap.String("code", room.Code()), zap.String("user_id", hostID))
	return room.View(), nil
}

// Join admits a player to a waiting room; rejoining returns the current state.
func (s *BattleService) Join(ctx context.Context, code, userID string, profile domain.Profile) (domain.RoomView, error) {
	room, err := s.room(code)
	if err != nil {
		return domain.RoomView{}, err
	}
	var view domain.RoomView
	err = s.update(ctx, room, EventRoster, func(state *domain.Room, now time.Time) error {
		if _, err := state.Join(userID, profile, now); err != nil {
			return err
		}
		view = state.View()
		return nil
	})
	return view, err
}

// SetReady toggles the caller's ready flag.
func (s *BattleService) SetReady(ctx context.Context, code, userID string, ready bool) (domain.RoomView, error) {
	room, err := s.room(code)
	if err != nil {
		return domain.RoomView{}, err
	}
	var view domain.RoomView
	err = s.update(ctx, room, EventRoster, func(state *domain.Room, _ time.Time) error {
		if err := state.SetReady(userID, ready); err != nil {
			return err
		}
		view = state.View()
		return nil
	})
	return view, err
}

// SetOnline records connection presence for a player.
func (s *BattleService) SetOnline(ctx context.Context, code, userID string, online bool) error {
	room, err := s.room(code)
	if err != nil {
		return err
	}
	return s.update(ctx, room, EventRoster, func(state *domain.Room, _ time.Time) error {
		return state.SetOnline(userID, online)
	})
}

// AllReady reports whether every player in the room is ready.
func (s *BattleService) AllReady(_ context.Context, code string) (bool, error) {
	room, err := s.room(code)
	if err != nil {
		return false, err
	}
	ready := false
	err = room.read(func(state *domain.Room) error {
		ready = state.AllReady()
		return nil
	})
	return ready, err
}

// Leave removes the player; a waiting room that empties is deleted.
func (s *BattleService) Leave(ctx context.Context, code, userID string) error {
	room, err := s.room(code)
	if err != nil {
		return err
	}
	err = s.update(ctx, room, EventRoster, func(state *domain.Room, now time.Time) error {
		return state.Leave(userID, now)
	})
	if err != nil {
		return err
	}
	s.rooms.RemoveIfAbandoned(room.Code())
	return nil
}

// Start samples questions and opens the battle. On any failure the room is
// left waiting and unmodified.
func (s *BattleService) Start(ctx context.Context, code, requesterID string) (StartResult, error) {
	room, err := s.room(code)
	if err != nil {
		return StartResult{}, err
	}
	var result StartResult
	err = s.update(ctx, room, EventStarted, func(state *domain.Room, now time.Time) error {
		if err := state.CanStart(requesterID); err != nil {
			return err
		}
		snapshots, err := s.resolveQuestions(ctx, state.Config)
		if err != nil {
			return err
		}
		previews, err := state.Begin(snapshots, now, s.countdown)
		if err != nil {
			return err
		}
		result = StartResult{Questions: previews, StartedAt: state.StartedAt}
		return nil
	})
	if err != nil {
		s.logger.Debug("start rejected", zap.String("code", room.Code()), zap.Error(err))
		return StartResult{}, err
	}
	s.logger.Info("battle started", zap.String("code", room.Code()), zap.Int("questions", len(result.Questions)))
	return result, nil
}

// SubmitAnswer scores one answer; the first submission per question wins.
func (s *BattleService) SubmitAnswer(ctx context.Context, code, userID string, submission domain.AnswerSubmission) (domain.AnswerOutcome, error) {
	room, err := s.room(code)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	var outcome domain.AnswerOutcome
	err = s.update(ctx, room, EventStandings, func(state *domain.Room, now time.Time) error {
		var err error
		outcome, err = state.SubmitAnswer(userID, submission.QuestionIndex, submission.AnswerValue, submission.TimeSpentSeconds, now)
		return err
	})
	return outcome, err
}

// End finishes the battle, then distributes rewards outside the room lock.
// Reward failures are reported per player and never undo the result.
func (s *BattleService) End(ctx context.Context, code, requesterID string) (EndResult, error) {
	room, err := s.room(code)
	if err != nil {
		return EndResult{}, err
	}
	var result domain.BattleResult
	err = s.update(ctx, room, EventFinished, func(state *domain.Room, now time.Time) error {
		if state.Status == domain.StatusFinished {
			return domain.ErrAlreadyFinished
		}
		if _, ok := state.Player(requesterID); !ok {
			return domain.ErrPlayerNotInRoom
		}
		if _, err := state.End(now); err != nil {
			return err
		}
		result = state.Result()
		return nil
	})
	if err != nil {
		return EndResult{}, err
	}
	s.logger.Info("battle finished", zap.String("code", result.Code), zap.String("winner", result.WinnerID))

	// Rewards outlive the caller's request.
	ctx = context.WithoutCancel(ctx)
	var rewards []RewardOutcome
	if s.rewards != nil {
		rewards = s.rewards.Distribute(ctx, result)
	}
	if err := s.events.PublishBattleFinished(ctx, result); err != nil {
		s.logger.Warn("publish battle finished failed", zap.String("code", result.Code), zap.Error(err))
	}
	return EndResult{Result: result, Rewards: rewards}, nil
}

// Cancel aborts a room on the host's request.
func (s *BattleService) Cancel(ctx context.Context, code, requesterID string) (domain.RoomView, error) {
	room, err := s.room(code)
	if err != nil {
		return domain.RoomView{}, err
	}
	var view domain.RoomView
	err = s.update(ctx, room, EventCancelled, func(state *domain.Room, now time.Time) error {
		if err := state.Cancel(requesterID, now); err != nil {
			return err
		}
		view = state.View()
		return nil
	})
	if err == nil {
		s.logger.Info("room cancelled", zap.String("code", room.Code()))
	}
	return view, err
}

// Detail returns the sanitized room view.
func (s *BattleService) Detail(_ context.Context, code string) (domain.RoomView, error) {
	room, err := s.room(code)
	if err != nil {
		return domain.RoomView{}, err
	}
	var view domain.RoomView
	err = room.read(func(state *domain.Room) error {
		view = state.View()
		return nil
	})
	return view, err
}

// ListPublic returns waiting, non-private rooms ordered by code.
func (s *BattleService) ListPublic(_ context.Context) []domain.RoomSummary {
	rooms := s.rooms.Rooms()
	out := make([]domain.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		if summary, ok := room.Summary(); ok {
			out = append(out, summary)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Subscribe returns a channel of room events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *BattleService) Subscribe(_ context.Context, code string) (<-chan Event, func(), error) {
	room, err := s.room(code)
	if err != nil {
		return nil, nil, err
	}
	return room.subscribe()
}

// update applies fn to the room and lets the registry follow the new state.
func (s *BattleService) update(ctx context.Context, room *Room, kind EventType, fn func(state *domain.Room, now time.Time) error) error {
	if err := room.update(kind, fn); err != nil {
		return err
	}
	s.rooms.Refresh(ctx, room.Code())
	return nil
}

func (s *BattleService) room(code string) (*Room, error) {
	room, ok := s.rooms.Get(domain.NormalizeCode(code))
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// resolveQuestions samples the bank and resolves every source into a snapshot.
// Repeated IDs are dropped so a misbehaving provider cannot pad the battle.
func (s *BattleService) resolveQuestions(ctx context.Context, cfg domain.RoomConfig) ([]domain.QuestionSnapshot, error) {
	sources, err := s.questions.Sample(ctx, cfg.Filter(), cfg.QuestionsCount)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	if len(sources) < cfg.QuestionsCount {
		return nil, domain.ErrInsufficientQuestions
	}

	seen := make(map[string]struct{}, len(sources))
	snapshots := make([]domain.QuestionSnapshot, 0, len(sources))
	for _, src := range sources {
		var snap domain.QuestionSnapshot
		switch q := src.(type) {
		case domain.InlineQuestion:
			snap = q.Snapshot
		case domain.RefQuestion:
			snap, err = s.resolver.GetQuestion(ctx, q.ID)
			if err != nil {
				return nil, fmt.Errorf("resolve question %s: %w", q.ID, err)
			}
		default:
			return nil, fmt.Errorf("unsupported question source %T", src)
		}
		if _, dup := seen[snap.ID]; dup {
			continue
		}
		seen[snap.ID] = struct{}{}
		snapshots = append(snapshots, snap)
	}
	if len(snapshots) < cfg.QuestionsCount {
		return nil, domain.ErrInsufficientQuestions
	}
	return snapshots, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishBattleFinished(context.Context, domain.BattleResult) error { return nil }
