package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizdeck/internal/app"
	"quizdeck/internal/config"
	"quizdeck/internal/infra/filesystem"
	"quizdeck/internal/infra/memory"
	"quizdeck/internal/infra/postgres"
	redisinfra "quizdeck/internal/infra/redis"
	"quizdeck/internal/logger"
	transport "quizdeck/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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
	log := logger.Init(cfg.Log.Format, cfg.Log.Level)

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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader app.CourseLoader
	switch {
	case pool != nil:
		loader = postgres.NewCourseLoader(pool)
	case cfg.Catalog.Dir != "":
		loader = filesystem.NewCourseLoader(cfg.Catalog.Dir)
	default:
		return fmt.Errorf("no course source: set catalog.dir or postgres.url")
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, time.Minute)
	if redisClient != nil {
		loader = redisinfra.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		loader = memory.NewCatalogRepository(loader, catalogTTL)
	}

	var results app.ResultStore
	switch {
	case pool != nil:
		results = postgres.NewResultStore(pool)
	case redisClient != nil:
		results = redisinfra.NewResultStore(redisClient, cfg.Redis.KeyPrefix)
	default:
		results = memory.NewResultStore()
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	defaults := app.DefaultLimits()
	service := app.NewQuizService(
		app.NewCatalog(loader, log),
		sessions,
		app.NewResultBridge(results, log),
		app.WithLogger(log),
		app.WithLimits(app.Limits{
			QuizTimeLimit: config.IntOr(cfg.Quiz.TimeLimit, defaults.QuizTimeLimit),
			MockTimeLimit: config.IntOr(cfg.Quiz.MockTimeLimit, defaults.MockTimeLimit),
			MockQuestions: config.IntOr(cfg.Quiz.MockQuestions, defaults.MockQuestions),
		}),
		app.WithAutoAdvanceDelay(config.TTLDuration(cfg.Quiz.AutoAdvanceDelay, 300*time.Millisecond)),
	)
	api := transport.NewAPI(service, config.TTLDuration(cfg.Quiz.ResultWait, 3*time.Second), log)

	// No WriteTimeout: session websockets stay open for the whole attempt.
	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     api.Routes(),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
