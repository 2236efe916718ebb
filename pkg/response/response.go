package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/authgate/pkg/errors"
)

// Response defines the base API payload.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    interface{} `json:"user,omitempty"`
}

// Success writes a JSON success response. The user payload is optional and
// must already be shaped for public consumption.
func Success(c *gin.Context, statusCode int, message string, user interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		User:    user,
	})
}

// Error writes a JSON error response derived from an AppError. Internal error
// details never reach the client.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, Response{
		Success: false,
		Message: appErr.Message,
	})
}
