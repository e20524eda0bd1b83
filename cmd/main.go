// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/captainsofcommerce/events-api/internal/auth"
	"github.com/captainsofcommerce/events-api/internal/config"
	"github.com/captainsofcommerce/events-api/internal/database"
	"github.com/captainsofcommerce/events-api/internal/handler"
	"github.com/captainsofcommerce/events-api/internal/model"
	"github.com/captainsofcommerce/events-api/internal/ratelimit"
	"github.com/captainsofcommerce/events-api/internal/repository"
	"github.com/captainsofcommerce/events-api/internal/service"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx := context.Background()

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.WithError(err).Fatal("run migrations")
	}
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("connect to database")
	}
	defer pool.Close()
	log.Info("connected to PostgreSQL")

	// Wire up layers.
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	eventSvc := service.NewEventService(eventRepo)
	regSvc := service.NewRegistrationService(regRepo, eventRepo, userRepo)
	commentSvc := service.NewCommentService(commentRepo, eventRepo)
	userSvc := service.NewUserService(userRepo)

	eventHandler := handler.NewEventHandler(eventSvc, log)
	regHandler := handler.NewRegistrationHandler(regSvc, log)
	commentHandler := handler.NewCommentHandler(commentSvc, log)
	adminHandler := handler.NewAdminHandler(regSvc, log)
	userHandler := handler.NewUserHandler(userSvc, log)

	verifier := auth.NewVerifier(cfg.AuthSecret)

	window, err := time.ParseDuration(cfg.RateLimitWindow)
	if err != nil {
		log.WithError(err).Fatal("parse rate limit window")
	}
	var limitStore ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RedisAddr != "" {
		limitStore, err = ratelimit.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.WithError(err).Fatal("connect to redis")
		}
		log.Info("rate limiting via Redis")
	}
	limiter := ratelimit.New(limitStore, cfg.RateLimitMax, window, log)

	// Build the router.
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.RequestLogger(log))
	r.Use(limiter.Middleware)

	r.Get("/health", handler.HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.List)
		r.Get("/{id}", eventHandler.Get)
		r.Get("/{id}/comments", commentHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(verifier.Authenticate)
			r.Post("/{id}/register", regHandler.Register)
			r.Delete("/{id}/register", regHandler.Unregister)
			r.Post("/{id}/comments", commentHandler.Create)
		})

		r.Group(func(r chi.Router) {
			r.Use(verifier.Authenticate)
			r.Use(auth.RequireRole(model.RoleAdmin, model.RoleStaff))
			r.Post("/", eventHandler.Create)
			r.Put("/{id}", eventHandler.Update)
			r.Delete("/{id}", eventHandler.Delete)
			r.Get("/{id}/register", regHandler.Roster)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(verifier.Authenticate)
		r.Post("/auth/sync", userHandler.Sync)
		r.Get("/user/registrations", regHandler.ListMine)
	})

	r.Route("/admin/registrations", func(r chi.Router) {
		r.Use(verifier.Authenticate)
		r.With(auth.RequireRole(model.RoleAdmin, model.RoleStaff)).Get("/", adminHandler.List)
		r.With(auth.RequireRole(model.RoleAdmin, model.RoleStaff)).Post("/manual", adminHandler.ManualRegister)
		r.With(auth.RequireRole(model.RoleAdmin)).Patch("/", adminHandler.Bulk)
	})

	// Start server with graceful shutdown.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("graceful shutdown failed")
	}
	log.Info("server stopped")
}
