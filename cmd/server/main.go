package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkaragoz/finbook/internal/api"
	"github.com/dkaragoz/finbook/internal/config"
	"github.com/dkaragoz/finbook/internal/logger"
	"github.com/dkaragoz/finbook/internal/repository"
	"github.com/dkaragoz/finbook/internal/service"
	"github.com/dkaragoz/finbook/internal/sweep"
)

func main() {
	log := logger.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up database")
	}
	defer db.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret)

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestLogger(log))

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Start the retention sweep in the background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := sweep.New(repo, cfg.Retention.GracePeriod, log)
	go sweeper.Start(ctx, cfg.Retention.SweepInterval)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().Str("addr", serverAddr).Msg("Starting server")
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
