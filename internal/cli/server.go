package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/config"
	"quiz-battle-service/internal/domain"
	kafkapub "quiz-battle-service/internal/infra/kafka"
	"quiz-battle-service/internal/infra/memory"
	pgstore "quiz-battle-service/internal/infra/postgres"
	redisstore "quiz-battle-service/internal/infra/redis"
	transport "quiz-battle-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the battle server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runServer(cmd.Context(), cfg, *port, logger)
		},
	}
}

// questionSource is satisfied by both the static and the Postgres bank.
type questionSource interface {
	app.QuestionSetProvider
	memory.QuestionLoader
}

func runServer(ctx context.Context, cfg config.Config, portFlag string, logger *zap.Logger) error {
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	roomTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var bank questionSource
	var progress app.ProgressRecorder
	var achievements app.AchievementStore
	if pool != nil {
		bank = pgstore.NewQuestionBank(pool)
		progress = pgstore.NewProgressRepository(pool)
		achievements = pgstore.NewAchievementRepository(pool)
	} else {
		questions := sampleQuestions()
		if cfg.Questions.File != "" {
			loaded, err := loadQuestions(cfg.Questions.File)
			if err != nil {
				return err
			}
			questions = loaded
		}
		bank = memory.NewStaticQuestionBank(questions)
		progress = memory.NewProgressStore()
		achievements = memory.NewAchievementStore()
	}

	var resolver app.QuestionResolver
	var rooms app.RoomRegistry
	if redisClient != nil {
		resolver = redisstore.NewQuestionCache(redisClient, bank, questionTTL)
		rooms = redisstore.NewRoomRegistry(redisClient, roomTTL, logger)
	} else {
		resolver = memory.NewQuestionCache(bank, questionTTL)
		rooms = memory.NewRoomRegistry(logger)
	}

	opts := []app.Option{
		app.WithLogger(logger),
		app.WithCountdown(config.TTLDuration(cfg.Battle.Countdown, app.DefaultCountdown)),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafkapub.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		opts = append(opts, app.WithEventPublisher(publisher))
	}

	rewards := app.NewRewardDistributor(progress, achievements, logger, cfg.Battle.RewardConcurrency)
	service := app.NewBattleService(rooms, bank, resolver, rewards, opts...)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	transport.NewRoomsHandler(service, logger).Register(mux)
	mux.HandleFunc("/ws", transport.NewWSHandler(service, logger).ServeWS)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting battle service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions seeds the in-memory bank when neither Postgres nor a
// question file is configured.
func sampleQuestions() []domain.QuestionSnapshot {
	mk := func(id, prompt, correct string, opts ...string) domain.QuestionSnapshot {
		options := make([]domain.Option, len(opts))
		for i, text := range opts {
			options[i] = domain.Option{ID: string(rune('a' + i)), Text: text}
		}
		return domain.QuestionSnapshot{
			ID:            id,
			Subject:       "general",
			Difficulty:    domain.DifficultyEasy,
			Prompt:        prompt,
			Points:        domain.DefaultQuestionPoints,
			Options:       options,
			CorrectAnswer: correct,
		}
	}
	return []domain.QuestionSnapshot{
		mk("q1", "What is 2 + 2?", "b", "3", "4", "5"),
		mk("q2", "Which planet is known as the Red Planet?", "c", "Venus", "Jupiter", "Mars"),
		mk("q3", "How many continents are there?", "a", "7", "5", "6"),
		mk("q4", "What is the boiling point of water at sea level in Celsius?", "b", "90", "100", "110"),
		mk("q5", "Which gas do plants absorb from the air?", "a", "Carbon dioxide", "Oxygen", "Nitrogen"),
	}
}
