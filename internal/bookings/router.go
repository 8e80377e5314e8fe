package bookings

import (
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, jwtSecret string) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(jwtSecret), middleware.RequireRoles(middleware.RoleUser, middleware.RoleAdmin))
	{
		bookings.POST("", controller.CreateBooking)
		bookings.GET("/me", controller.GetMyBookings)
		bookings.GET("/:id", controller.GetBooking)
		bookings.PUT("/:id/cancel", controller.CancelBooking)
	}

	admin := rg.Group("/admin")
	admin.Use(middleware.JWTAuth(jwtSecret), middleware.RequireAdmin())
	{
		admin.GET("/bookings", controller.GetAllBookings)
		admin.GET("/events/:id/consistency", controller.VerifyEventConsistency)
	}
}
