package cli

import (
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pgstore "quiz-battle-service/internal/infra/postgres"
	redisstore "quiz-battle-service/internal/infra/redis"
)

// NewSeedCmd loads a YAML question file into the Postgres question bank.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load questions from a YAML file into the question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if file == "" {
				file = cfg.Questions.File
			}
			questions, err := loadQuestions(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := runMigrations(ctx, cfg, logger); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			bank := pgstore.NewQuestionBank(pool)
			for _, q := range questions {
				if err := bank.SaveQuestion(ctx, q); err != nil {
					return err
				}
			}

			// Running servers would otherwise keep serving stale snapshots until TTL.
			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
				defer client.Close()
				cache := redisstore.NewQuestionCache(client, bank, 0)
				for _, q := range questions {
					if err := cache.Invalidate(ctx, q.ID); err != nil {
						logger.Warn("invalidate cached question failed", zap.String("question_id", q.ID), zap.Error(err))
					}
				}
			}
			logger.Info("questions seeded", zap.Int("count", len(questions)), zap.String("file", file))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML question file (defaults to questions.file from config)")
	return cmd
}
