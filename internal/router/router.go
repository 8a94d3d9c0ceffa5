package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pantrychef/backend/internal/api"
	"github.com/pantrychef/backend/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(
	authHandler *api.AuthHandler,
	generationHandler *api.GenerationHandler,
	recipeHandler *api.RecipeHandler,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS())

	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1)
	generationHandler.RegisterRoutes(v1)
	recipeHandler.RegisterRoutes(v1)

	return router
}
