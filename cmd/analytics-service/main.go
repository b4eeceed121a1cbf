package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	ahandler "github.com/lumigente/lumigente-backend/internal/analytics/handler"
	"github.com/lumigente/lumigente-backend/internal/app"
	"github.com/lumigente/lumigente-backend/internal/auth/jwt"
	"github.com/lumigente/lumigente-backend/internal/hierarchy/consumers"
	"github.com/lumigente/lumigente-backend/internal/hierarchy/events"
	hhandler "github.com/lumigente/lumigente-backend/internal/hierarchy/handler"
	"github.com/lumigente/lumigente-backend/pkg/config"
	"github.com/lumigente/lumigente-backend/pkg/database"
	"github.com/lumigente/lumigente-backend/pkg/httputil"
	"github.com/lumigente/lumigente-backend/pkg/logger"
	"github.com/lumigente/lumigente-backend/pkg/messaging"
	"github.com/lumigente/lumigente-backend/pkg/metrics"
)

const serviceName = "analytics-service"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Analytics Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.New("lumigente")

	// RabbitMQ is optional: without it paths are only refreshed through /hierarchy/sync
	var rmq *messaging.RabbitMQ
	publisher := events.NewWithSender(nil, log)
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewHierarchyEventPublisher(rmq, serviceName, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	svc := app.Build(cfg, db, publisher, m, log)

	// Initialize handlers
	hierarchyHandler := hhandler.NewHierarchyHandler(svc.Directory, log)
	analyticsHandler := ahandler.NewAnalyticsHandler(svc.Engine, svc.Team, svc.Directory, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start user event consumer
	if rmq != nil {
		userConsumer, err := consumers.NewUserEventConsumer(rmq, svc.Directory, svc.Engine, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create user event consumer")
		}
		if err := userConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start user event consumer")
		}
	}

	tokens := jwt.NewManager(&cfg.JWT)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(m.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", app.HealthHandler(serviceName, db, rmq))
	r.Handle("/metrics", m.Handler())

	// API routes (bearer token required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwt.Authenticate(tokens, log))
		r.Use(middleware.Timeout(60 * time.Second))

		r.Route("/hierarchy", func(r chi.Router) {
			r.Get("/me", hierarchyHandler.Me)
			r.Get("/subordinates", hierarchyHandler.Subordinates)
			r.Get("/superiors", hierarchyHandler.Superiors)
			r.Get("/accessible-users", hierarchyHandler.AccessibleUsers)
			r.Get("/stats", hierarchyHandler.Stats)
			r.Get("/permissions", hierarchyHandler.Permissions)
			r.Post("/sync", hierarchyHandler.Sync)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/dashboard", analyticsHandler.Dashboard)
			r.Get("/rankings", analyticsHandler.Rankings)
			r.Get("/gamification", analyticsHandler.Gamification)
			r.Get("/departments", analyticsHandler.Departments)
			r.Get("/trends", analyticsHandler.Trends)
			r.Get("/satisfaction", analyticsHandler.Satisfaction)
			r.Get("/available-departments", analyticsHandler.AvailableDepartments)
			r.Get("/export", analyticsHandler.Export)
			r.Get("/cache", analyticsHandler.CacheStats)
			r.Delete("/cache", analyticsHandler.ClearCache)
		})

		r.Route("/manager", func(r chi.Router) {
			r.Get("/team-metrics", analyticsHandler.TeamMetrics)
			r.Get("/team-status", analyticsHandler.TeamStatus)
			r.Get("/team-management", analyticsHandler.TeamManagement)
			r.Get("/departments", analyticsHandler.ManagerDepartments)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
