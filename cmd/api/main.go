// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/admin-console/internal/activity"
	"github.com/carterperez-dev/admin-console/internal/admin"
	"github.com/carterperez-dev/admin-console/internal/auth"
	"github.com/carterperez-dev/admin-console/internal/authz"
	"github.com/carterperez-dev/admin-console/internal/config"
	"github.com/carterperez-dev/admin-console/internal/core"
	"github.com/carterperez-dev/admin-console/internal/dashboard"
	"github.com/carterperez-dev/admin-console/internal/health"
	"github.com/carterperez-dev/admin-console/internal/middleware"
	"github.com/carterperez-dev/admin-console/internal/module"
	"github.com/carterperez-dev/admin-console/internal/otp"
	"github.com/carterperez-dev/admin-console/internal/queue"
	"github.com/carterperez-dev/admin-console/internal/server"
	"github.com/carterperez-dev/admin-console/internal/session"
	"github.com/carterperez-dev/admin-console/internal/user"
	"github.com/carterperez-dev/admin-console/internal/usertype"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)
	core.SetExposeErrorDetail(cfg.IsDevelopment())

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := core.Migrate(ctx, db.DB); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	roles, err := authz.NewHierarchy(cfg.Authz.Roles)
	if err != nil {
		return err
	}

	cookies, err := session.NewCookies(session.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secret: []byte(cfg.Session.CookieSecret),
		Secure: cfg.Session.CookieSecure,
		MaxAge: cfg.Session.CookieMaxAge,
	})
	if err != nil {
		return err
	}

	activityRepo := activity.NewRepository(db.DB)

	healthChecks := []health.Check{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}

	var (
		sink      activity.Sink = activity.NewRepositorySink(activityRepo)
		publisher *queue.Publisher
	)
	if cfg.Activity.Transport == config.ActivityTransportAMQP {
		publisher = queue.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		sink = publisher
		healthChecks = append(healthChecks, health.Check{Name: "amqp", Checker: publisher})

		consumer := queue.NewConsumer(
			cfg.AMQP.URL,
			cfg.AMQP.Queue,
			cfg.AMQP.Prefetch,
			activityRepo,
			logger,
		)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("activity consumer stopped", "error", err)
			}
		}()
		logger.Info("activity transport: amqp", "queue", cfg.AMQP.Queue)
	}

	dispatcher := activity.NewDispatcher(sink, activity.DispatcherConfig{
		Buffer:  cfg.Activity.BufferSize,
		Workers: cfg.Activity.Workers,
	}, logger)

	userTypeRepo := usertype.NewRepository(db.DB)
	userTypeSvc := usertype.NewService(userTypeRepo, roles)
	userTypeHandler := usertype.NewHandler(userTypeSvc)

	userSvc := user.NewService(user.NewStore(db.DB), userTypeRepo, roles)
	userHandler := user.NewHandler(userSvc)

	sessions := session.NewManager(
		session.NewStore(db.DB),
		userSvc,
		session.Config{
			TTL:           cfg.Session.TTL,
			RefreshWindow: cfg.Session.RefreshWindow,
			MaxPerUser:    cfg.Session.MaxPerUser,
		},
		session.WithLogger(logger),
	)

	otpSvc := otp.NewService(
		otp.NewRepository(db.DB),
		otp.NewSender(cfg.SMTP, logger),
		otp.Config{TTL: cfg.OTP.TTL, Digits: cfg.OTP.Digits},
	)

	authSvc := auth.NewService(
		userSvc,
		sessions,
		otpSvc,
		auth.NewGoogleVerifier(cfg.Google),
		dispatcher,
	)
	authHandler := auth.NewHandler(authSvc, cookies)

	activitySvc := activity.NewService(activityRepo, roles)
	activityHandler := activity.NewHandler(activitySvc)

	moduleSvc := module.NewService(module.NewStore(db.DB), userSvc, dispatcher)
	moduleHandler := module.NewHandler(moduleSvc)

	adminSvc := admin.NewService(userSvc, userTypeRepo, sessions, roles, dispatcher)
	adminHandler := admin.NewHandler(adminSvc)

	statsHandler := admin.NewStatsHandler(admin.StatsConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Dispatcher: dispatcher.Stats,
	})

	dashboardSvc := dashboard.NewService(
		dashboard.NewRepository(db.DB),
		activitySvc,
		roles,
	)
	dashboardHandler := dashboard.NewHandler(dashboardSvc)

	healthHandler := health.NewHandler(healthChecks...)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Name:     "general",
			Limit:    middleware.LimitFrom(cfg.RateLimit.General),
			KeyFunc:  middleware.KeyByIP,
			FailOpen: true,
		}).Handler,
	)

	healthHandler.RegisterRoutes(router)

	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Name:     "auth",
		Limit:    middleware.LimitFrom(cfg.RateLimit.Auth),
		KeyFunc:  middleware.KeyByIP,
		FailOpen: false,
	}).Handler

	adminLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Name:     "admin",
		Limit:    middleware.LimitFrom(cfg.RateLimit.Admin),
		KeyFunc:  middleware.KeyByUser,
		FailOpen: true,
	}).Handler

	authenticator := middleware.Authenticator(cookies, sessions)

	gate := middleware.NewGate(roles)
	gates := admin.Gates{
		AdminOrManager: gate.AtLeast(authz.RoleManager, middleware.MsgManageUsersGate),
		Admin:          gate.AtLeast(authz.RoleAdmin, middleware.MsgAdminGate),
		Owner:          gate.Owner(middleware.MsgOwnerGate),
	}

	router.Route("/user", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authLimiter)
		userHandler.RegisterRoutes(r, authenticator)
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminLimiter)

		adminHandler.RegisterRoutes(r, gates)
		moduleHandler.RegisterRoutes(r, gates.AdminOrManager, gates.Admin)
		userTypeHandler.RegisterRoutes(r, gates.Owner)
		activityHandler.RegisterRoutes(r, gates.AdminOrManager)
		statsHandler.RegisterRoutes(r, gates.Owner)
	})

	dashboardHandler.RegisterRoutes(router, authenticator)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("activity dispatcher close error", "error", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("amqp publisher close error", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
