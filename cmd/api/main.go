package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"p2p-market-sim/internal/api/handlers"
	"p2p-market-sim/internal/api/middleware"
	"p2p-market-sim/internal/dataset"
)

func main() {
	// A missing .env file is fine, the environment still applies.
	_ = godotenv.Load()

	if level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	simulateHandler := handlers.NewSimulateHandler(dataset.CacheFromEnv())
	batteryHandler := handlers.NewBatteryHandler()
	agentHandler := handlers.NewAgentHandler()
	profileHandler := handlers.NewProfileHandler()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/simulate", simulateHandler.RunSimulation)
		api.POST("/simulate/compare", simulateHandler.CompareSimulations)

		api.GET("/agents", agentHandler.ListAgents)
		api.GET("/batteries", batteryHandler.ListBatteries)
		api.GET("/datasets", handlers.ListDatasets)

		api.POST("/profiles/preview", profileHandler.PreviewProfile)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("addr", addr).Msg("starting api server")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
