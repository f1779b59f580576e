package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trivia-bot/internal/app"
	"trivia-bot/internal/config"
	"trivia-bot/internal/infra/memory"
	redisstore "trivia-bot/internal/infra/redis"
	"trivia-bot/internal/intake"
	"trivia-bot/internal/ledger"
	"trivia-bot/internal/logging"
	"trivia-bot/internal/metrics"
	transport "trivia-bot/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the bot.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia bot and its chat bridge",
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
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
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

	be, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	store, err := be.leaderboardStore(cfg)
	if err != nil {
		return err
	}
	questions, err := be.loadBank(ctx, cfg)
	if err != nil {
		return err
	}
	settings, err := app.NewSettings(cfg.Game)
	if err != nil {
		return fmt.Errorf("invalid game settings: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	hub := transport.NewHub(logger)
	lb := ledger.New(store, logger.Named("ledger"))

	var channels app.ChannelRepository = memory.NewChannelStore()
	if be.redis != nil {
		rs := redisstore.NewChannelStore(be.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		defer func() { _ = rs.Release(context.Background()) }()
		channels = rs
	}
	for _, id := range cfg.Game.Channels {
		ctrl, err := app.NewController(id, questions, lb, hub, settings,
			app.WithLogger(logger.Named("round")),
			app.WithMetrics(rec),
			app.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))),
		)
		if err != nil {
			return err
		}
		channels.Register(ctrl)
	}
	service := app.NewGameService(channels, lb)

	in := intake.New(service, hub, intake.Options{
		BotID:      cfg.Game.BotID,
		Prefix:     cfg.Game.Prefix,
		Enrollment: intake.Enrollment(cfg.Game.Enrollment),
		Limiter:    intake.NewSenderLimiter(cfg.Game.Rate.PerSecond, cfg.Game.Rate.Burst),
		Logger:     logger.Named("intake"),
		Metrics:    rec,
	})
	ws := transport.NewWSHandler(in, hub, logger.Named("ws"))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, ws, reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting trivia bot",
			zap.String("addr", server.Addr),
			zap.Strings("channels", cfg.Game.Channels),
			zap.Int("questions", questions.Len()),
			zap.String("variant", cfg.Game.Variant))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	if cfg.Game.AutoStart {
		for _, id := range cfg.Game.Channels {
			if _, err := service.StartRound(ctx, id); err != nil {
				logger.Warn("auto start failed", zap.String("channel", id), zap.Error(err))
			}
		}
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		service.Shutdown(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
