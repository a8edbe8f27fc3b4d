package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"assessment-engine/internal/app"
	"assessment-engine/internal/config"
	"assessment-engine/internal/domain"
	"assessment-engine/internal/infra/memory"
	pginfra "assessment-engine/internal/infra/postgres"
	redisinfra "assessment-engine/internal/infra/redis"
	"assessment-engine/internal/judge"
	transport "assessment-engine/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the assessment engine server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	logger := httplog.NewLogger("assessment-engine", httplog.Options{
		LogLevel: slog.LevelInfo,
		Concise:  true,
	})

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.RoundLoader = memory.NewStaticRoundLoader(sampleRounds())
	if pool != nil {
		loader = pginfra.NewRoundLoader(pool)
	}

	roundTTL := config.Duration(cfg.Rounds.CacheTTL, 10*time.Minute)
	var rounds app.RoundRepository
	if redisClient != nil {
		rounds = redisinfra.NewRoundRepository(redisClient, loader, roundTTL)
	} else {
		rounds = memory.NewRoundRepository(loader, roundTTL)
	}

	var results app.ResultStore = memory.NewResultStore()
	if pool != nil {
		results = pginfra.NewResultStore(pool)
	}
	if redisClient != nil {
		results = redisinfra.NewResultStore(redisClient, results, config.Duration(cfg.Redis.TTL, 10*time.Minute))
	}

	var attempts app.AttemptRepository = memory.NewAttemptStore()
	if redisClient != nil {
		attempts = redisinfra.NewAttemptStore(redisClient)
	}

	languages := cfg.Judge.Languages
	if len(languages) == 0 {
		languages = judge.DefaultLanguages()
	}
	pipeline := judge.New(
		judge.NewExecRunner(languages),
		judge.WithCaseLimit(config.Duration(cfg.Judge.CaseLimit, 2*time.Second)),
		judge.WithWorkers(maxInt(cfg.Judge.Workers, 1)),
	)

	engine := app.NewEngine(rounds, attempts, results, pipeline,
		app.WithLogger(logger.Logger),
		app.WithResultHook(func(res domain.Result) {
			// Notification fan-out is owned by an external collaborator;
			// the hook is the integration point.
			logger.Info("result ready for notification",
				"participantId", res.ParticipantID, "roundId", res.RoundID, "passed", res.Passed)
		}),
	)

	handler := transport.NewHandler(engine, logger)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(cfg.Auth.Secret),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go runSweep(sweepCtx, engine, config.Duration(cfg.Sweep.Interval, 30*time.Second), logger.Logger)

	go func() {
		logger.Info("starting assessment engine", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "err", err)
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

// runSweep periodically finalizes expired idle attempts so their results
// become available without participant activity.
func runSweep(ctx context.Context, engine *app.Engine, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := engine.FinalizeExpired(ctx); n > 0 {
				log.Info("finalized expired attempts", "count", n)
			}
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// sampleRounds seeds a minimal two-round hackathon for local runs without
// Postgres; production loads rounds from the catalog tables.
func sampleRounds() map[string]domain.RoundBundle {
	return map[string]domain.RoundBundle{
		"round-1": {
			Config: domain.RoundConfig{
				ID:               "round-1",
				HackathonID:      "hack-1",
				Kind:             domain.RoundMCQ,
				DurationSec:      600,
				ItemCount:        2,
				PassingScore:     50,
				NegativeMarking:  true,
				PenaltyFraction:  0.25,
				ShuffleQuestions: true,
				ShuffleOptions:   true,
			},
			Questions: []domain.QuestionSpec{
				{
					ID:           "q1",
					Text:         "Which complexity class describes binary search?",
					Options:      []string{"O(n)", "O(log n)", "O(n log n)", "O(1)"},
					CorrectIndex: 1,
					Marks:        2,
					Difficulty:   "easy",
				},
				{
					ID:           "q2",
					Text:         "Which data structure backs a BFS traversal?",
					Options:      []string{"Stack", "Queue", "Heap", "Trie"},
					CorrectIndex: 1,
					Marks:        2,
					Difficulty:   "easy",
				},
				{
					ID:           "q3",
					Text:         "What does ACID's I stand for?",
					Options:      []string{"Inversion", "Isolation", "Iteration", "Immutability"},
					CorrectIndex: 1,
					Marks:        3,
					Difficulty:   "medium",
				},
			},
		},
		"round-2": {
			Config: domain.RoundConfig{
				ID:          "round-2",
				HackathonID: "hack-1",
				Kind:        domain.RoundCoding,
				PrevRoundID: "round-1",
				DurationSec: 3600,
				ItemCount:   1,
			},
			Problems: []domain.ProblemSpec{
				{
					ID:          "p1",
					Title:       "Sum of two numbers",
					Description: "Read two integers from stdin and print their sum.",
					Difficulty:  "easy",
					Points:      10,
					Cases: []domain.TestCase{
						{Input: "1 2\n", Expected: "3\n"},
						{Input: "10 -4\n", Expected: "6\n"},
						{Input: "1000000 1000000\n", Expected: "2000000\n", Hidden: true},
					},
				},
			},
		},
	}
}
