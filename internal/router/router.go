package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"habittracker/backend/internal/handler"
	"habittracker/backend/internal/middleware"
	"habittracker/backend/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	habitHandler *handler.HabitHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	users := api.Group("/users")
	users.Use(middleware.Auth(authService))
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PATCH("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	api.GET("/habits/published", habitHandler.ListPublished)

	habits := api.Group("/habits")
	habits.Use(middleware.Auth(authService))
	habits.GET("", habitHandler.ListOwn)
	habits.POST("", habitHandler.Create)
	habits.GET("/:id", habitHandler.Get)
	habits.PUT("/:id", habitHandler.Update)
	habits.PATCH("/:id", habitHandler.Patch)
	habits.DELETE("/:id", habitHandler.Delete)

	return engine
}
