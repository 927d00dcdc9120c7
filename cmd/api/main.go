package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/civic-issue-service/internal/api/http"
	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/classify"
	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/observability"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/service"
	"github.com/spec-kit/civic-issue-service/internal/worker"
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

	// Without a DSN the service runs entirely on in-memory stores. Useful
	// for local development and demos; data is lost on restart.
	pool := pg.PoolHandle()
	var (
		issueRepo repository.IssueRepository
		userRepo  repository.UserRepository
		directory repository.EmployeeDirectory
		resetRepo repository.PasswordResetRepository
	)
	if pool != nil {
		issueRepo = repository.NewIssueRepository(pool)
		userRepo = repository.NewUserRepository(pool)
		directory = repository.NewEmployeeDirectory(pool)
		resetRepo = repository.NewPasswordResetRepository(pool)
	} else {
		logger.Warn("running with in-memory stores; data will not survive restarts")
		issueRepo = repository.NewMemoryIssueRepository()
		userRepo = repository.NewMemoryUserRepository()
		directory = repository.NewMemoryEmployeeDirectory()
		resetRepo = repository.NewMemoryPasswordResetRepository()
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		EmployeeDirectory: directory,
		PasswordResetRepo: resetRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, directory)

	gateway := classify.NewGateway(classify.GatewayConfig{
		Endpoint:       cfg.Classifier.Endpoint,
		APIKey:         cfg.Classifier.APIKey,
		TimeoutSeconds: cfg.Classifier.TimeoutSeconds,
	})
	var gatewayClassifier classify.Classifier
	if gateway != nil {
		gatewayClassifier = gateway
	}
	suggester := classify.NewSuggester(gatewayClassifier, logger)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	assignmentService := service.NewAssignmentService(directory)
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:   issueRepo,
		Assignments: assignmentService,
		Suggester:   suggester,
		Dispatcher:  dispatcher,
	})
	statsService := service.NewStatsService()

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	rateLimiter := httptransport.NewDailySubmissionLimiter(redis, cfg.RateLimit.DailyIssueLimit, logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService),
		StaffIssues:    handlers.NewStaffIssuesHandler(issueService, assignmentService),
		Stats:          handlers.NewStatsHandler(issueService, statsService),
		Export:         handlers.NewExportHandler(issueService),
		AuthMiddleware: authMiddleware,
		RateLimiter:    rateLimiter,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
