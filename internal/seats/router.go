package seats

import (
	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(router *gin.RouterGroup, controller *Controller) {
	// Seat maps are public so anonymous visitors can watch availability
	seatRoutes := router.Group("/events/:id/seats")
	{
		seatRoutes.GET("", controller.GetSeatState)
		seatRoutes.GET("/quote", controller.QuoteSeats)
		seatRoutes.GET("/stream", controller.StreamSeatState)
	}
}
