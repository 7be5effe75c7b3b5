// Package main is the entry point for the chat API server.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/adoptmatch/chat-service/internal/config"
	"github.com/adoptmatch/chat-service/internal/handler"
	"github.com/adoptmatch/chat-service/internal/middleware"
	natsclient "github.com/adoptmatch/chat-service/internal/nats"
	"github.com/adoptmatch/chat-service/internal/push"
	"github.com/adoptmatch/chat-service/internal/service"
	"github.com/adoptmatch/chat-service/internal/store"
	"github.com/adoptmatch/chat-service/pkg/logger"
	"github.com/adoptmatch/chat-service/pkg/tracing"
)

// dispatcherDurable names the JetStream consumer driving notification
// dispatch; keeping it stable lets the dispatcher resume where it left off.
const dispatcherDurable = "notification-dispatcher"

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting chat API server")

	// Initialize tracing if enabled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chat-service", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the durable store
	db, err := store.Open(cfg.BadgerDir)
	if err != nil {
		log.Error("failed to open store", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	rooms := store.NewRoomStore(db)
	messages := store.NewMessageStore(db)
	tokens := store.NewTokenStore(db)
	records := store.NewNotificationStore(db)

	// Connect to NATS
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	// Ensure JetStream stream exists
	streamManager := natsclient.NewStreamManager(natsClient)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", zap.Error(err))
		os.Exit(1)
	}

	// Push provider
	var pushClient push.Client
	if cfg.PushDisabled || cfg.PushServerKey == "" {
		log.Warn("push delivery disabled, notifications are in-app only")
		pushClient = push.NopClient{}
	} else {
		pushClient = push.NewFCMClient(cfg.PushEndpoint, cfg.PushServerKey, cfg.PushTimeout)
	}

	// Initialize services
	directory := service.NewRoomDirectory(rooms, log)
	messageLog := service.NewMessageLog(rooms, messages, streamManager, log)
	dispatcher := service.NewNotificationDispatcher(rooms, tokens, records, pushClient, cfg.PushTitle, log)

	// Run the notification dispatcher off the message stream. Dispatch is
	// best-effort and independent per message; it never blocks appends.
	go func() {
		if err := streamManager.ConsumeAppended(ctx, dispatcherDurable, dispatcher.OnMessageAppended); err != nil && ctx.Err() == nil {
			log.Error("notification dispatcher stopped", zap.Error(err))
		}
	}()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db, natsClient)
	roomHandler := handler.NewRoomHandler(directory, messageLog, log)
	messageHandler := handler.NewMessageHandler(messageLog, directory, log)
	streamHandler := handler.NewStreamHandler(messageLog, directory, log)
	tokenHandler := handler.NewTokenHandler(tokens, log)
	notificationHandler := handler.NewNotificationHandler(records, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Rooms
		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", roomHandler.Resolve)
			r.Get("/", roomHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", roomHandler.Get)

				// Messages
				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)

				// Live feed
				r.Get("/stream", streamHandler.Stream)
			})
		})

		// Delivery tokens
		r.Put("/tokens", tokenHandler.Register)
		r.Delete("/tokens", tokenHandler.Unregister)

		// In-app notifications
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Post("/{id}/read", notificationHandler.MarkRead)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
