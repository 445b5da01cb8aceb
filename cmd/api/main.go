package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/complykit/request-service/internal/api/http"
	"github.com/complykit/request-service/internal/api/http/handlers"
	"github.com/complykit/request-service/internal/auth"
	"github.com/complykit/request-service/internal/config"
	"github.com/complykit/request-service/internal/events"
	"github.com/complykit/request-service/internal/notify"
	"github.com/complykit/request-service/internal/observability"
	"github.com/complykit/request-service/internal/persistence"
	"github.com/complykit/request-service/internal/queue"
	"github.com/complykit/request-service/internal/repository"
	"github.com/complykit/request-service/internal/service"
	"github.com/complykit/request-service/internal/tracker"
	"github.com/complykit/request-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	commentRepo := repository.NewRequestCommentRepository(pool)
	eventRepo := repository.NewRequestEventRepository(pool)
	linkRepo := repository.NewExternalLinkRepository(pool)
	configurationRepo := repository.NewConfigurationRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	jobs := queue.NewRedisQueue(redis.Client, cfg.Notification.QueueKey)

	adapterBuilder := tracker.NewBuilder(configurationRepo, cfg.Integration.Timeout(), logger)
	syncService := service.NewTrackerSyncService(adapterBuilder, linkRepo, userRepo, logger, metrics,
		cfg.Integration.TitlePrefix, cfg.App.SiteURL)

	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo:  requestRepo,
		CommentRepo:  commentRepo,
		EventRepo:    eventRepo,
		TemplateRepo: templateRepo,
		LinkRepo:     linkRepo,
		Dispatcher:   dispatcher,
		Sync:         syncService,
		Logger:       logger,
	})

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		RequestRepo:      requestRepo,
		CommentRepo:      commentRepo,
		EventRepo:        eventRepo,
		UserRepo:         userRepo,
		NotificationRepo: notificationRepo,
		Dispatcher:       dispatcher,
		Jobs:             jobs,
		Logger:           logger,
	}, cfg.Notification, cfg.App.SiteURL)
	notificationService.RegisterHandlers()

	mailer := notify.NewSMTPMailer(cfg.Notification.SMTPAddr)
	webhookSender := notify.NewHTTPWebhookSender(cfg.Integration.Timeout())
	deliveryWorker := worker.NewDeliveryWorker(jobs, mailer, webhookSender, logger)
	go deliveryWorker.Run(ctx)

	authService := service.NewAuthService(*cfg, userRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.App.Env == "production"})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Requests:       handlers.NewRequestsHandler(requestService),
		Templates:      handlers.NewTemplatesHandler(templateRepo),
		Notifications:  handlers.NewNotificationsHandler(notificationRepo),
		Configuration:  handlers.NewConfigurationHandler(configurationRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
