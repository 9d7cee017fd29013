// Package response renders the JSON envelope shared by REST handlers and
// middleware
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/healthyplate/server/pkg/errors"
)

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool                 `json:"success"`
	Data    interface{}          `json:"data,omitempty"`
	Error   *errors.ErrorDetails `json:"error,omitempty"`
	Message string               `json:"message,omitempty"`
}

// OK writes a successful envelope
func OK(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// Fail writes err as a failed envelope and aborts the chain. Errors that are
// not AppErrors are reported as internal errors without their text.
func Fail(c *gin.Context, err error) {
	appErr := AsAppError(err)
	details := errors.ToErrorResponse(appErr, c.GetString(RequestIDKey)).Error
	c.AbortWithStatusJSON(appErr.StatusCode(), APIResponse{
		Success: false,
		Error:   &details,
		Message: appErr.Message,
	})
}

// ProxyFail writes the flat {"error": message} body used by the passthrough
// endpoint
func ProxyFail(c *gin.Context, err error) {
	appErr := AsAppError(err)
	c.AbortWithStatusJSON(appErr.StatusCode(), gin.H{"error": appErr.Message})
}

// AsAppError returns the AppError in err's chain or a generic internal error
func AsAppError(err error) *errors.AppError {
	if err == nil {
		return errors.NewInternalError("")
	}
	return errors.Wrap(err, "")
}
