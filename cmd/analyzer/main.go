package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/railmetrics/ohespeed/internal/pkg/config"
	"github.com/railmetrics/ohespeed/internal/pkg/database"
	"github.com/railmetrics/ohespeed/internal/pkg/health"
	"github.com/railmetrics/ohespeed/internal/pkg/logger"
	"github.com/railmetrics/ohespeed/internal/pkg/middleware"
	"github.com/railmetrics/ohespeed/internal/pkg/nats"
	"github.com/railmetrics/ohespeed/internal/pkg/server"
	"github.com/railmetrics/ohespeed/services/analysis/gateway"
	"github.com/railmetrics/ohespeed/services/analysis/handler"
	"github.com/railmetrics/ohespeed/services/analysis/repository"
	"github.com/railmetrics/ohespeed/services/analysis/usecase"
)

func main() {
	appName := "ohe-analysis-service"
	configPath := "config/analyzer.env"
	configs := config.InitConfig(configPath)

	// Initialize logger
	appLogger, err := logger.NewAppLogger(configs.Logger, appName)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	// Initialize PostgreSQL database connection
	postgresClient, err := database.NewPostgresClient(configs.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer postgresClient.Close()

	// Initialize Redis client
	redisClient, err := database.NewRedisClient(configs.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize NATS
	natsClient, err := nats.NewClient(configs.NATS.URL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsClient.Close()

	// Initialize repository
	analysisRepo := repository.NewAnalysisRepository(configs, postgresClient.GetDB(), redisClient)

	// Initialize gateway
	analysisGW := gateway.NewAnalysisGW(natsClient)

	// Initialize usecase
	analysisUC := usecase.NewAnalysisUC(configs, analysisRepo, analysisGW, appLogger)

	// Initialize handlers
	h := handler.NewHandler(analysisUC, configs)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.LoggerMiddleware(appLogger.Logger))

	// Register health endpoints
	health.RegisterHealthEndpoints(e, appName)

	// Register service routes
	h.RegisterRoutes(e)

	// Start server with graceful shutdown
	srv := server.NewGracefulServer(e, appLogger, configs.Server.Port,
		time.Duration(configs.Server.ShutdownTimeout)*time.Second)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to run %s: %v", appName, err)
	}
}
