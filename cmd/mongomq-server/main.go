// Package main provides the mongomq broker server executable with HTTP API.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coregx/mongomq"
	"github.com/coregx/mongomq/adapters/mongo"
	"github.com/coregx/mongomq/cmd/mongomq-server/internal/api"
	"github.com/coregx/mongomq/cmd/mongomq-server/internal/config"
)

// SimpleLogger implements mongomq.Logger for standard logging.
type SimpleLogger struct{}

func (l *SimpleLogger) Debugf(format string, args ...interface{}) {
	log.Printf("[DEBUG] "+format, args...)
}
func (l *SimpleLogger) Infof(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}
func (l *SimpleLogger) Warnf(format string, args ...interface{}) {
	log.Printf("[WARN] "+format, args...)
}
func (l *SimpleLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}
func (l *SimpleLogger) Info(message string) {
	log.Printf("[INFO] %s", message)
}

func main() {
	log.Println("🚀 Starting mongomq broker server v0.1.0...")

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("📝 Configuration loaded:")
	log.Printf("   Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("   MongoDB: %s:%d", cfg.Mongo.Host, cfg.Mongo.Port)
	log.Printf("   Capped broadcast size: %d bytes", cfg.Mongo.CappedQueueSize)
	log.Printf("   Consumer interval: %ds", cfg.Broker.ConsumerInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to MongoDB: ping, version gate, schema setup
	conn, err := mongo.Open(ctx, mongo.Config{
		Host:            cfg.Mongo.Host,
		Port:            cfg.Mongo.Port,
		Username:        cfg.Mongo.User,
		Password:        cfg.Mongo.Password,
		Database:        cfg.Mongo.Database,
		TLS:             cfg.Mongo.TLS,
		CappedQueueSize: cfg.Mongo.CappedQueueSize,
	})
	if err != nil {
		if mongomq.IsCompatibilityError(err) {
			log.Fatalf("Unsupported MongoDB server: %v", err)
		}
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if closeErr := conn.Close(context.Background()); closeErr != nil {
			log.Printf("Failed to close MongoDB connection: %v", closeErr)
		}
	}()
	log.Printf("✅ MongoDB connection established (server version %s)", conn.ServerVersion())

	// Create logger
	logger := &SimpleLogger{}

	// Create notification service
	var notificationService mongomq.NotificationService
	if cfg.Broker.EnableNotifications {
		notificationService = mongomq.NewLoggingNotificationService(logger)
	} else {
		notificationService = &mongomq.NoOpNotificationService{}
	}

	// Create transport and channel
	transport, err := mongomq.NewTransport(
		mongomq.WithConnector(conn),
		mongomq.WithTransportLogger(logger),
		mongomq.WithTransportNotifications(notificationService),
		mongomq.WithPollingInterval(time.Duration(cfg.Broker.ConsumerInterval)*time.Second),
	)
	if err != nil {
		log.Fatalf("Failed to create transport: %v", err)
	}

	channel, err := transport.Channel(ctx)
	if err != nil {
		log.Fatalf("Failed to open channel: %v", err)
	}
	defer func() {
		if closeErr := channel.Close(context.Background()); closeErr != nil {
			log.Printf("Failed to close channel: %v", closeErr)
		}
	}()
	log.Println("✅ Channel opened")

	// Create API handler
	handler := api.NewHandler(channel, logger)

	// Setup HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/publish", handler.HandlePublish)
	mux.HandleFunc("/api/v1/bind", handler.HandleBind)
	mux.HandleFunc("/api/v1/queues/", handler.HandleQueue) // Note trailing slash for :name
	mux.HandleFunc("/api/v1/table", handler.HandleTable)
	mux.HandleFunc("/api/v1/health", handler.HandleHealth)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("🌐 HTTP server listening on %s", addr)
		log.Println("📡 API Endpoints:")
		log.Println("   POST   /api/v1/publish")
		log.Println("   POST   /api/v1/bind")
		log.Println("   GET    /api/v1/queues/:name/size")
		log.Println("   POST   /api/v1/queues/:name/purge")
		log.Println("   DELETE /api/v1/queues/:name")
		log.Println("   GET    /api/v1/table?exchange=:name")
		log.Println("   GET    /api/v1/health")
		log.Println()
		log.Println("✅ mongomq broker server is ready!")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	cancel()
	log.Println("✅ Server stopped gracefully")
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(next http.Handler, logger mongomq.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger.Infof("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
		logger.Debugf("%s %s - %v", r.Method, r.URL.Path, time.Since(start))
	})
}
