package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"response-service/internal/answers"
	"response-service/internal/api/routes"
	"response-service/internal/chat"
	"response-service/internal/config"
	"response-service/internal/database"
	"response-service/internal/ws"

	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting response server")

	// Initialize MongoDB connection
	mongoDB, err := database.NewMongoConnection(&cfg.Mongo)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}

	// Redis is optional; without it room broadcasts stay in-process
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err := database.NewRedisConnection(&cfg.Redis)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		rdb = redisClient.GetClient()
	}

	// Initialize services
	questionStore := answers.NewMongoStore(mongoDB.Client, mongoDB.Questions())
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := questionStore.EnsureIndexes(ctx); err != nil {
			cancel()
			slog.Error("Failed to create indexes", "error", err)
			os.Exit(1)
		}
		cancel()
	}
	answersSvc := answers.NewService(questionStore)
	chatSvc := chat.NewService(chat.NewMongoRepository(mongoDB.Chats()))

	// Initialize WebSocket hub
	hub := ws.NewHub(rdb)
	go hub.Run()

	wsHandler := ws.NewHandler(hub, answersSvc, chatSvc)

	// Initialize router
	router := routes.NewRouter(hub, wsHandler)
	router.SetupRoutes()

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop WebSocket hub
	hub.Stop()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if err := mongoDB.Close(ctx); err != nil {
		slog.Error("MongoDB disconnect failed", "error", err)
	}

	slog.Info("Server stopped")
}
