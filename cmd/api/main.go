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
	"github.com/rs/zerolog"

	"github.com/noah-isme/revia-go-api/internal/config"
	"github.com/noah-isme/revia-go-api/internal/database"
	"github.com/noah-isme/revia-go-api/internal/handler"
	"github.com/noah-isme/revia-go-api/internal/middleware"
	"github.com/noah-isme/revia-go-api/internal/models"
	"github.com/noah-isme/revia-go-api/internal/repository"
	"github.com/noah-isme/revia-go-api/internal/router"
	"github.com/noah-isme/revia-go-api/internal/service"
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
		&models.User{},
		&models.Course{},
		&models.Batch{},
		&models.Semester{},
		&models.Project{},
		&models.Rubric{},
		&models.Criterion{},
		&models.Review{},
		&models.ReviewPublication{},
		&models.ScoreRecord{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	validate := validator.New(validator.WithRequiredStructEnabled())

	reviewRepo := repository.NewReviewRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	publicationRepo := repository.NewPublicationRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	rubricRepo := repository.NewRubricRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	gate := service.NewSubmissionGate(scoreRepo, rosterRepo, reviewRepo, rubricRepo, logger)
	visibilityService := service.NewVisibilityService(reviewRepo, publicationRepo, rosterRepo, redisClient, cfg.PublicationCacheTTL, logger)
	publicationService := service.NewPublicationService(reviewRepo, publicationRepo, rosterRepo, visibilityService, redisClient, cfg.PublicationCacheTTL, activityService, logger)
	draftService := service.NewDraftService(redisClient, cfg.DraftTTL, gate, rosterRepo, validate, logger)
	evaluationService := service.NewEvaluationService(reviewRepo, projectRepo, rosterRepo, rubricRepo, scoreRepo, draftService, redisClient, cfg.SummaryCacheTTL, cfg.PublicationCacheTTL, activityService, validate, logger)

	reviewHandler := handler.NewReviewHandler(visibilityService, publicationService, logger)
	draftHandler := handler.NewDraftHandler(draftService, logger)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ReviewHandler:     reviewHandler,
		DraftHandler:      draftHandler,
		EvaluationHandler: evaluationHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		SubmitRateLimit:   middleware.RateLimit("submit-scores", cfg.SubmitRateLimit, cfg.SubmitRateWindow),
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
