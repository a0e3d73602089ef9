// File: meetwise/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"meetwise/config"
	"meetwise/handlers"
	"meetwise/middleware"
	"meetwise/routes"
	"meetwise/services/booking"
	"meetwise/services/gcal"
	"meetwise/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	utils.InitHoldCache()
	utils.StartHealthMonitor(utils.GetHoldCacheClient())

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Provider adapter.
	providerClient := gcal.NewDefaultClient(
		time.Duration(config.AppConfig.FreeBusyTimeoutSec)*time.Second,
		time.Duration(config.AppConfig.BookingTimeoutSec)*time.Second,
	)

	// Advisory slot holds.
	holdStore := booking.NewRedisHoldStore(utils.GetHoldCacheClient())
	holdTTL := time.Duration(config.AppConfig.HoldTTLMin) * time.Minute

	// Booking engine.
	engine := &booking.DefaultEngine{
		Provider: providerClient,
		Holds:    holdStore,
	}

	engineHandler := handlers.NewEngineHandler(engine, holdStore, holdTTL, logger)
	routes.RegisterRoutes(router, engineHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
