package events

import (
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller Controller, jwtSecret string) {
	// Public browsing, no seat numbers exposed
	router.GET("/public/events", controller.ListPublicEvents)

	userEvents := router.Group("/events")
	userEvents.Use(middleware.JWTAuth(jwtSecret), middleware.RequireRoles(middleware.RoleUser, middleware.RoleAdmin))
	{
		userEvents.GET("", controller.ListEvents)
		userEvents.GET("/:id", controller.GetEvent)
	}

	adminEvents := router.Group("/admin/events")
	adminEvents.Use(middleware.JWTAuth(jwtSecret), middleware.RequireAdmin())
	{
		adminEvents.POST("", controller.CreateEvent)
		adminEvents.PUT("/:id", controller.UpdateEvent)
		adminEvents.DELETE("/:id", controller.DeleteEvent)
	}
}
