package response

import "github.com/gin-gonic/gin"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RespondJSON writes the standard envelope used by every endpoint.
func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// Success is shorthand for a success envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	RespondJSON(c, StatusSuccess, code, message, data, nil)
}

// Error is shorthand for an error envelope.
func Error(c *gin.Context, code int, message string, details interface{}) {
	RespondJSON(c, StatusError, code, message, nil, details)
}
