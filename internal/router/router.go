package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"juststart/internal/handler"
	"juststart/internal/middleware"
	"juststart/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	pomodoroHandler *handler.PomodoroHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/token", authHandler.Token)

	pomodoro := api.Group("/pomodoro")
	pomodoro.Use(middleware.Auth(authService))
	pomodoro.GET("/state", pomodoroHandler.GetState)
	pomodoro.POST("/toggle", pomodoroHandler.Toggle)
	pomodoro.POST("/skip", pomodoroHandler.Skip)
	pomodoro.POST("/reset", pomodoroHandler.Reset)
	pomodoro.POST("/location", pomodoroHandler.ChangeLocation)
	pomodoro.GET("/history", pomodoroHandler.GetHistory)
	pomodoro.GET("/status", pomodoroHandler.GetStatus)
	pomodoro.GET("/events", pomodoroHandler.Events)

	return engine
}
