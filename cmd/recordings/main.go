package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zanzhit/meeting_recordings/internal/config"
	activityhandler "github.com/zanzhit/meeting_recordings/internal/http-server/handlers/activities"
	authhandler "github.com/zanzhit/meeting_recordings/internal/http-server/handlers/auth"
	recordinghandler "github.com/zanzhit/meeting_recordings/internal/http-server/handlers/recordings"
	authmiddleware "github.com/zanzhit/meeting_recordings/internal/http-server/middleware/auth"
	"github.com/zanzhit/meeting_recordings/internal/http-server/middleware/logger"
	"github.com/zanzhit/meeting_recordings/internal/lib/sl"
	activityservice "github.com/zanzhit/meeting_recordings/internal/services/activities"
	authservice "github.com/zanzhit/meeting_recordings/internal/services/auth"
	recordingservice "github.com/zanzhit/meeting_recordings/internal/services/recordings"
	"github.com/zanzhit/meeting_recordings/internal/services/recordings/zoom"
	"github.com/zanzhit/meeting_recordings/internal/storage/postgres"
	activitystorage "github.com/zanzhit/meeting_recordings/internal/storage/postgres/activities"
	authstorage "github.com/zanzhit/meeting_recordings/internal/storage/postgres/auth"
	recordingstorage "github.com/zanzhit/meeting_recordings/internal/storage/postgres/recordings"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting application", slog.String("env", cfg.Env), slog.String("address", cfg.HTTPServer.Address))

	if cfg.DB.Password == "" {
		panic("POSTGRES_PASSWORD is required")
	}

	if cfg.Secret == "" {
		panic("JWT_SECRET is required")
	}

	location, err := time.LoadLocation(cfg.Display.TimeZone)
	if err != nil {
		panic("invalid display time zone: " + err.Error())
	}

	storage, err := postgres.New(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer storage.Close()

	authStorage := authstorage.New(storage)
	activityStorage := activitystorage.New(storage)
	recordingStorage := recordingstorage.New(storage)

	zoomClient := zoom.New(log, cfg.Zoom)

	authService := authservice.New(log, authStorage, authStorage, cfg.TokenTTL, cfg.Secret)
	activityService := activityservice.New(log, activityStorage)
	recordingService := recordingservice.New(log, recordingStorage, activityStorage, zoomClient, location)

	if email, password := os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"); email != "" {
		if err := authService.CreateInitialAdmin(context.Background(), email, password); err != nil {
			panic(err)
		}
	}

	authHandler := authhandler.New(log, authService)
	activityHandler := activityhandler.New(log, activityService)
	recordingHandler := recordinghandler.New(log, recordingService)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(logger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Post("/auth/register", authHandler.RegisterNewUser)
	router.Post("/auth/login", authHandler.Login)

	router.Group(func(r chi.Router) {
		r.Use(authmiddleware.JWTAuth(cfg.Secret))

		r.Get("/activities/{id}/recordings", recordingHandler.Recordings)
		r.Get("/activities/{id}/recordings/toggle", recordingHandler.Toggle)
		r.Post("/activities/{id}/recordings/toggle", recordingHandler.Toggle)
		r.Get("/activities/{id}/recordings/{recordingID}/load", recordingHandler.Load)

		r.Group(func(r chi.Router) {
			r.Use(authmiddleware.AdminRequired)

			r.Post("/activities", activityHandler.SaveActivity)
			r.Post("/activities/{id}/enrollments", activityHandler.Enroll)
		})
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
		}
	}()

	log.Info("server started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	log.Info("stopping server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("failed to stop server", sl.Err(err))

		return
	}

	log.Info("server stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
