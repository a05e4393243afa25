package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/staybook/booking-service/internal/api/http"
	"github.com/staybook/booking-service/internal/api/http/handlers"
	"github.com/staybook/booking-service/internal/auth"
	"github.com/staybook/booking-service/internal/config"
	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/events"
	"github.com/staybook/booking-service/internal/mail"
	"github.com/staybook/booking-service/internal/observability"
	"github.com/staybook/booking-service/internal/persistence"
	"github.com/staybook/booking-service/internal/repository"
	"github.com/staybook/booking-service/internal/service"
	"github.com/staybook/booking-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	adminRepo := repository.NewAdminRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	partnerRepo := repository.NewPartnerRepository(pool)

	tokenOpts := []auth.TokenOption{auth.WithRefreshWindow(cfg.Auth.RefreshWindow())}
	if cfg.Auth.RevocationEnabled {
		if client := redis.Handle(); client != nil {
			tokenOpts = append(tokenOpts, auth.WithDenylist(auth.NewRedisDenylist(client)))
			logger.Info("token revocation enabled")
		} else {
			logger.Warn("AUTH_REVOCATION_ENABLED set without redis; logout will not invalidate tokens")
		}
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), tokenOpts...)
	resolver := auth.NewResolver(adminRepo, userRepo, partnerRepo)
	authMiddleware := auth.NewMiddleware(tokens, resolver, logger,
		auth.WithRefreshThreshold(cfg.Auth.RefreshThreshold()),
		auth.WithRefreshHook(func(kind string) { metrics.RecordAuth(kind, "refreshed") }),
	)

	mailQueue := worker.NewMailQueue(newMailer(cfg.Notification, logger), logger, cfg.Notification.Workers, cfg.Notification.QueueSize)

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, mailQueue, logger, cfg.Notification, cfg.Auth.PasswordResetTTL()).RegisterHandlers()

	stores := service.NewActorStores(adminRepo, userRepo, partnerRepo)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Stores:      stores,
		UserRepo:    userRepo,
		PartnerRepo: partnerRepo,
		Tokens:      tokens,
		Resolver:    resolver,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	resetService := service.NewPasswordResetService(cfg.Auth, stores, dispatcher, logger)
	adminService := service.NewAdminService(cfg.Auth, adminRepo, logger)

	if err := adminService.SeedSuperAdmin(ctx, cfg.Seed); err != nil {
		logger.Fatal("failed to seed super admin", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:      cfg.App.RequestTimeout(),
		AllowOrigins: cfg.HTTP.AllowOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Session:        handlers.NewSessionHandler(authService, metrics, logger),
		Admins:         handlers.NewAdminHandler(adminService),
		Users:          handlers.NewUsersHandler(authService),
		Partners:       handlers.NewPartnersHandler(authService),
		AdminResets:    handlers.NewPasswordResetHandler(domain.ActorKindAdmin, resetService),
		UserResets:     handlers.NewPasswordResetHandler(domain.ActorKindUser, resetService),
		PartnerResets:  handlers.NewPasswordResetHandler(domain.ActorKindPartner, resetService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer drainCancel()
	if err := mailQueue.Shutdown(drainCtx); err != nil {
		logger.Warn("mail queue did not drain", zap.Error(err))
	}
}

func newMailer(cfg config.NotificationConfig, logger *zap.Logger) mail.Mailer {
	if cfg.ResendAPIKey == "" {
		logger.Info("NOTIFY_RESEND_API_KEY not set; emails are logged only")
		return mail.NewLogMailer(logger, cfg.EmailFrom)
	}
	mailer, err := mail.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom)
	if err != nil {
		logger.Warn("resend mailer unavailable; falling back to log mailer", zap.Error(err))
		return mail.NewLogMailer(logger, cfg.EmailFrom)
	}
	return mailer
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
