package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/brandmill/brandmill-backend/internal/handlers"
	"github.com/brandmill/brandmill-backend/internal/middleware"
)

type RouterConfig struct {
	AllowedOrigins    []string
	RequestUser       *middleware.RequestUserMiddleware
	GenerationHandler *handlers.GenerationHandler
	JobsHandler       *handlers.JobsHandler
	SSEHandler        *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     trimAll(origins),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", middleware.UserIDHeader},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/api/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.RequestUser.RequireUser())
	{
		api.POST("/content/generate", cfg.GenerationHandler.Generate)
		api.GET("/jobs/:id", cfg.JobsHandler.GetJobByID)
		api.POST("/jobs/:id/cancel", cfg.JobsHandler.CancelJob)
		api.GET("/sse", cfg.SSEHandler.Stream)
	}

	return router
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
