package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lombahub/lombahub-api/internal/config"
	"github.com/lombahub/lombahub-api/internal/database"
	"github.com/lombahub/lombahub-api/internal/handler"
	"github.com/lombahub/lombahub-api/internal/middleware"
	"github.com/lombahub/lombahub-api/internal/models"
	"github.com/lombahub/lombahub-api/internal/repository"
	"github.com/lombahub/lombahub-api/internal/router"
	"github.com/lombahub/lombahub-api/internal/rubric"
	"github.com/lombahub/lombahub-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Submission{},
		&models.Assignment{},
		&models.Contest{},
		&models.PanelMember{},
		&models.Expert{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	schema := rubric.Default()
	if cfg.RubricPath != "" {
		schema, err = rubric.LoadFile(cfg.RubricPath)
		if err != nil {
			log.Fatalf("failed to load rubric schema: %v", err)
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	panelRepo := repository.NewPanelRepository(db)
	expertRepo := repository.NewExpertRepository(db)
	contestRepo := repository.NewContestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.NotifyChannel, natsConn, logger)
	matcher := service.NewExpertMatcher(expertRepo, nil, logger)
	aggregator := service.NewScoreAggregator(submissionRepo, assignmentRepo, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, panelRepo, matcher, schema, aggregator, notificationService, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, logger)
	finalizer := service.NewContestFinalizer(contestRepo, submissionRepo, aggregator, notificationService, logger)
	reconciler := service.NewReconciliationService(submissionRepo, aggregator, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, validate, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	contestHandler := handler.NewContestHandler(finalizer, reconciler, validate, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:   assignmentHandler,
		SubmissionHandler:   submissionHandler,
		ContestHandler:      contestHandler,
		NotificationHandler: notificationHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
