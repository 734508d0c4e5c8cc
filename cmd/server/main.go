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

	"github.com/meridian-commerce/core/internal/audit"
	"github.com/meridian-commerce/core/internal/command"
	"github.com/meridian-commerce/core/internal/eventstore"
	"github.com/meridian-commerce/core/internal/httpapi"
	"github.com/meridian-commerce/core/internal/outbox"
	"github.com/meridian-commerce/core/internal/projection"
	"github.com/meridian-commerce/core/internal/publisher"
	"github.com/meridian-commerce/core/internal/scheduler"
	"github.com/meridian-commerce/core/internal/shared/auth"
	"github.com/meridian-commerce/core/internal/shared/config"
	"github.com/meridian-commerce/core/internal/shared/database"
	"github.com/meridian-commerce/core/internal/shared/metrics"
	secmiddleware "github.com/meridian-commerce/core/internal/shared/middleware"
	"github.com/meridian-commerce/core/internal/views"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	store := eventstore.NewPostgresStore(db.Pool)
	outboxStore := outbox.NewPostgresStore(db.Pool)
	commands := command.NewService(db.Pool, store, outboxStore)
	viewsSvc := views.NewService(db.Pool)

	auditRepo := audit.NewRepository(db.Pool)
	if err := auditRepo.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize audit log: %v\n", err)
		os.Exit(1)
	}

	runner := projection.NewRunner(db.Pool, store)
	sched := scheduler.New(viewsSvc, commands, cfg.Scheduler)
	pub := publisher.New(outboxStore, publisher.LoggingSubscriber{}, audit.NewSubscriber(auditRepo))

	go runSafely("projection runner", func() error { return runner.Run(ctx, 1*time.Second) })
	go runSafely("scheduler", func() error { return sched.Run(ctx) })
	go runSafely("outbox publisher", func() error { return pub.Run(ctx, 2*time.Second) })

	api := httpapi.NewHandler(commands, viewsSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.CORS(secmiddleware.CORSConfig{
		AllowedOrigins:   cfg.Auth.TrustedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	r.Use(metrics.Middleware)

	r.Get("/health", healthHandler(db))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth))
		r.Post("/commands", api.HandleCommand)
		r.Post("/queries", api.HandleQuery)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		fmt.Printf("listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		}
	}()

	<-ctx.Done()
	fmt.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "graceful shutdown failed: %v\n", err)
	}
}

// runSafely logs a background worker's terminal error instead of
// crashing the process - context cancellation on shutdown is the
// expected exit path, not a failure.
func runSafely(name string, fn func() error) {
	if err := fn(); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "%s stopped: %v\n", name, err)
	}
}

func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}
