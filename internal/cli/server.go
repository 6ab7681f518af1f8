package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-trivia-service/internal/app"
	"event-trivia-service/internal/config"
	"event-trivia-service/internal/domain"
	"event-trivia-service/internal/infra/file"
	"event-trivia-service/internal/infra/memory"
	natspub "event-trivia-service/internal/infra/nats"
	"event-trivia-service/internal/infra/postgres"
	rediscache "event-trivia-service/internal/infra/redis"
	transport "event-trivia-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// newStartCmd builds the CLI subcommand to start the server.
func newStartCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, opts.port)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config, portFlag string) error {
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.CatalogLoader = memory.NewStaticCatalogLoader(sampleQuestions())
	switch {
	case pool != nil:
		loader = postgres.NewCatalogLoader(pool)
	case cfg.Game.CatalogPath != "":
		loader = file.NewCatalogLoader(cfg.Game.CatalogPath)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalog app.CatalogRepository
	if redisClient != nil {
		catalog = rediscache.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		catalog = memory.NewCatalogRepository(loader, catalogTTL)
	}

	recent := memory.NewSnapshotStore(cfg.Snapshot.History)
	stores := app.MultiSnapshotStore{recent, file.NewSnapshotStore(cfg.Snapshot.Path)}
	if redisClient != nil {
		stores = append(stores, rediscache.NewSnapshotStore(redisClient, cfg.Snapshot.History, redisTTL))
	}
	if pool != nil {
		stores = append(stores, postgres.NewSnapshotStore(pool))
	}
	if cfg.NATS.URL != "" {
		nc, err := natspub.Connect(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer nc.Drain()
		stores = append(stores, natspub.NewSnapshotPublisher(nc, cfg.NATS.Subject))
	}

	tables := cfg.Game.Tables
	if tables == 0 {
		tables = app.DefaultTableCount
	}
	game, err := app.NewGame(ctx, catalog,
		app.WithTables(tables),
		app.WithAnswerGap(config.TTLDuration(cfg.Game.AnswerGap, app.DefaultAnswerGap)),
		app.WithSnapshotStore(stores),
	)
	if err != nil {
		return err
	}

	wsHandler := transport.NewWSHandler(game, transport.WSOptions{
		SendBuffer:   cfg.Game.SendBuffer,
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, transport.DefaultWriteTimeout),
		PingInterval: config.TTLDuration(cfg.Server.PingInterval, transport.DefaultPingInterval),
	})
	handler := transport.NewRouter(transport.RouterConfig{
		Game:           game,
		WS:             wsHandler,
		Snapshots:      recent,
		PublicURL:      cfg.Server.PublicURL,
		StaticDir:      cfg.Server.StaticDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort("", finalPort),
		Handler:           handler,
		ReadHeaderTimeout: config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		ReadTimeout:       config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout:      15 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Int("tables", tables).Msg("starting trivia server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	case err := <-errs:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions is the catalog used when neither Postgres nor a catalog file
// is configured.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Categories:     []string{"science"},
			Type:           domain.SingleChoice,
			Prompt:         "Which planet is known as the Red Planet?",
			Answers:        []string{"Venus", "Mars", "Jupiter", "Mercury"},
			CorrectAnswers: []int{1},
			Score:          10,
			Timer:          30,
		},
		{
			Categories:     []string{"geography"},
			Type:           domain.MultipleChoice,
			Prompt:         "Which of these cities are capitals?",
			Answers:        []string{"Paris", "Sydney", "Ottawa", "Istanbul"},
			CorrectAnswers: []int{0, 2},
			Score:          20,
			Timer:          45,
		},
		{
			Categories:     []string{"science", "_warmup"},
			Type:           domain.SingleChoice,
			Prompt:         "What is the chemical symbol for gold?",
			Answers:        []string{"Ag", "Au", "Gd"},
			CorrectAnswers: []int{1},
			Score:          10,
			Timer:          20,
		},
	}
}
