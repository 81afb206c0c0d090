package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/Dosada05/robotics-tournament-core/brackets"
	"github.com/Dosada05/robotics-tournament-core/config"
	"github.com/Dosada05/robotics-tournament-core/db"
	"github.com/Dosada05/robotics-tournament-core/handlers"
	"github.com/Dosada05/robotics-tournament-core/repositories"
	"github.com/Dosada05/robotics-tournament-core/routes"
	"github.com/Dosada05/robotics-tournament-core/services"
	"github.com/Dosada05/robotics-tournament-core/storage"
)

// @title Robotics Tournament Core API
// @version 1.0
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx, dbConn)
	cancelMigrate()
	if err != nil {
		logger.Error("failed to apply schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready")

	var uploader storage.FileUploader
	if cfg.R2.Enabled() {
		uploader, err = storage.NewR2Uploader(context.Background(), cfg.R2, logger)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("certificate archive enabled", slog.String("bucket", cfg.R2.BucketName))
	} else {
		logger.Info("certificate archive disabled, R2 is not configured")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()

	repos := services.Repositories{
		Tx:          repositories.NewPostgresTransactor(dbConn),
		Tournaments: repositories.NewPostgresTournamentRepository(dbConn),
		Entrants:    repositories.NewPostgresEntrantRepository(dbConn),
		Seedings:    repositories.NewPostgresSeedingRepository(dbConn),
		Brackets:    repositories.NewPostgresBracketRepository(dbConn),
		Matches:     repositories.NewPostgresMatchRepository(dbConn),
		Schedule:    repositories.NewPostgresScheduleRepository(dbConn),
		Standings:   repositories.NewPostgresStandingRepository(dbConn),
		Results:     repositories.NewPostgresResultRepository(dbConn),
		Teams:       repositories.NewPostgresTeamRegistry(dbConn),
		Categories:  repositories.NewPostgresCategoryRegistry(dbConn),
	}

	defaults := services.TournamentDefaults{QualificationCount: cfg.QualificationCount, Points: cfg.Points}
	tournamentService := services.NewTournamentService(repos, defaults, logger)
	seedingService := services.NewSeedingService(repos, logger)
	bracketService := services.NewBracketService(repos, wsHub, logger)
	matchService := services.NewMatchService(repos, wsHub, logger)
	resultService := services.NewResultService(repos, uploader, wsHub, logger)
	standingService := services.NewStandingService(repos, logger)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Tournaments: handlers.NewTournamentHandler(tournamentService, seedingService),
		Brackets:    handlers.NewBracketHandler(bracketService, standingService),
		Matches:     handlers.NewMatchHandler(matchService),
		Results:     handlers.NewResultHandler(resultService),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins, logger),
	}, routes.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
