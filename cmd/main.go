package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"liff-gateway/internal/config"
	"liff-gateway/internal/line"
	"liff-gateway/internal/logger"
	"liff-gateway/internal/telemetry"
	"liff-gateway/middleware"
	"liff-gateway/routes"
	"liff-gateway/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.OTelEnabled {
		shutdown, err := telemetry.InitTracer("liff-gateway", cfg.OTelEndpoint, cfg.GinMode)
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		// Redis only backs rate limiting and the name cache; both fail open.
		logger.Warn("Redis unavailable, continuing without it", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	uiStates, err := services.NewUIStates(cfg.UIStateSize, services.SystemScheduler, cfg.SubmitCooldown)
	if err != nil {
		log.Fatal("Failed to create UI state cache:", err)
	}

	deps := &routes.Deps{
		Config: cfg,
		Line: line.NewClient(line.ClientOptions{
			ChannelID:     cfg.LineChannelID,
			ChannelSecret: cfg.LineChannelSecret,
			CallbackURL:   cfg.LineCallbackURL,
		}),
		Sessions:   routes.NewSessionStore(cfg),
		Pages:      services.NewPageRouter(cfg.PageMap),
		Redirector: services.NewRedirector(cfg.BaseURL, cfg.DebugMode),
		Relay: services.NewRelay(services.RelayOptions{
			Endpoint: cfg.GASScriptURL,
			AutoHide: cfg.StatusAutoHide,
			RPS:      cfg.RelayRPS,
			Metrics:  metrics,
		}),
		Lookup:  services.NewNameLookup(cfg.LookupURL, rdb, cfg.NameCacheTTL, nil, metrics),
		UI:      uiStates,
		Metrics: metrics,
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.OTelEnabled {
		router.Use(middleware.TracingMiddleware(), middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(metrics))

	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	routes.LoadTemplates(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupAuthRoutes(router, deps)
	routes.SetupLIFFRoutes(router, deps)
	routes.SetupRelayRoutes(router, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "debug_mode", cfg.DebugMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
