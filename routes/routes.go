package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"meetwise/handlers"
	"meetwise/middleware"
)

// RegisterEngineRoutes registers all endpoints for the booking engine.
func RegisterEngineRoutes(r *gin.Engine, eh *handlers.EngineHandler) {
	engine := r.Group("/api/engine")
	{
		// All engine calls operate on the caller's own calendar credential.
		engine.Use(middleware.CalendarAuthMiddleware())
		engine.POST("/availability", eh.GetAvailability)
		engine.POST("/book", eh.BookSlot)
		engine.POST("/holds", eh.PlaceHold)
		engine.DELETE("/holds", eh.ReleaseHold)
	}
}

// RegisterRoutes wires global middleware and all route groups.
func RegisterRoutes(r *gin.Engine, eh *handlers.EngineHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", handlers.HealthHandler)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	RegisterEngineRoutes(r, eh)
}
