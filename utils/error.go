package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   string(KindInternal),
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, kind ErrorKind, message string, details string) {
	GetLogger().Warn(message, zap.String("kind", string(kind)), zap.String("details", details))
	c.JSON(status, ErrorResponse{Error: string(kind), Message: message, Details: details})
}

// RespondError classifies err and writes it. Internal details never leave the process.
func RespondError(c *gin.Context, err error) {
	kind := ErrorKindOf(err)
	if kind == KindInternal {
		GetLogger().Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	JSONError(c, StatusFor(kind), kind, PublicMessage(err), "")
}
