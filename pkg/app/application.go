package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	"rentease/internal/health"
	"rentease/pkg/config"
	"rentease/pkg/contracts"
	"rentease/pkg/middleware"
)

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore *middleware.IdempotencyStore
	rateLimiter      *middleware.ClientRateLimiter
	healthHandler    http.Handler
	appHandler       http.Handler
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

func (a *Application) SetApp(handlers ...contracts.Handler) {
	a.setHealthHandler()
	a.setAppHandler(handlers...)
	a.setAppServer()
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	health.NewHandler(a.cfg.Client.Mongo, a.cfg.Log).RegisterRoutes(healthRouter)

	var handler http.Handler = healthRouter
	handler = middleware.RequestLogging(a.cfg.Log)(handler)
	handler = middleware.Recovery(a.cfg.Log)(handler)
	a.healthHandler = handler
}

func (a *Application) setAppHandler(handlers ...contracts.Handler) {
	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	a.idempotencyStore = middleware.NewIdempotencyStore(a.cfg.IdempotencyTTL, a.cfg.Log)
	a.rateLimiter = middleware.NewClientRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		a.cfg.Log,
	)

	var handler http.Handler = appRouter
	handler = middleware.Idempotency(a.idempotencyStore)(handler)
	handler = middleware.RequestTimeout(a.cfg.RequestTimeout)(handler)
	handler = middleware.RateLimit(a.rateLimiter)(handler)
	handler = middleware.ContentTypeValidation(a.cfg.Log)(handler)
	handler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(handler)
	handler = middleware.RequestLogging(a.cfg.Log)(handler)
	handler = middleware.Recovery(a.cfg.Log)(handler)
	a.appHandler = handler

	a.cfg.Log.Info("Application endpoints configured", "handlers", len(handlers))
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	a.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
