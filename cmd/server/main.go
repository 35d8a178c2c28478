package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/skistats/fis-analytics/internal/analytics"
	"github.com/skistats/fis-analytics/internal/api"
	"github.com/skistats/fis-analytics/internal/api/handlers"
	"github.com/skistats/fis-analytics/internal/api/middleware"
	"github.com/skistats/fis-analytics/internal/services"
	"github.com/skistats/fis-analytics/internal/store"
	"github.com/skistats/fis-analytics/pkg/config"
	"github.com/skistats/fis-analytics/pkg/database"
	"github.com/skistats/fis-analytics/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logLevel := "info"
	if cfg.IsDevelopment() {
		logLevel = "debug"
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	log := logger.InitLogger(logLevel, cfg.IsDevelopment())

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Wire the result store behind the circuit breaker.
	resultStore := store.NewBreakerStore(
		store.NewGormStore(db.DB),
		cfg.BreakerThreshold,
		cfg.BreakerTimeout,
		log,
	)

	engine := &analytics.Engine{
		MinBibFieldSize:     cfg.MinBibFieldSize,
		MinRegressionSample: cfg.MinRegressionSample,
		MomentumDecay:       cfg.MomentumDecay,
		MomentumHotCutoff:   cfg.MomentumHotCutoff,
	}

	cacheService := services.NewCacheService(redisClient, cfg.AggregateTTL)
	orchestrator := services.NewOrchestrator(resultStore, cacheService, engine, log)

	precomputer := services.NewPrecomputer(db.DB, resultStore, cacheService, orchestrator, engine, log, cfg.RefreshSchedule)
	if err := precomputer.Start(cfg.RefreshOnStart); err != nil {
		log.Fatalf("Failed to start precomputer: %v", err)
	}
	defer precomputer.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg.CorsOrigins))
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	healthHandler := handlers.NewHealthHandler(db, cacheService)
	router.GET("/health", healthHandler.GetHealth)

	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, orchestrator, precomputer, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Forced shutdown: %v", err)
	}
	log.Info("Server stopped")
}
