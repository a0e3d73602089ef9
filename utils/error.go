package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error kinds returned by the booking engine. Every failure that crosses the
// service boundary carries exactly one of these codes.
const (
	CodeInvalidParameters   = "invalidParameters"
	CodeUnauthorized        = "unauthorized"
	CodeProviderUnavailable = "providerUnavailable"
	CodeBookingRejected     = "bookingRejected"
)

// EngineError is the structured error returned by the engine's services.
type EngineError struct {
	Code    string
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError wraps cause (may be nil) with a machine-readable code.
func NewEngineError(code, message string, cause error) *EngineError {
	return &EngineError{Code: code, Message: message, Err: cause}
}

// EngineErrorCode extracts the engine code from err, or "" if err was never
// classified by the engine.
func EngineErrorCode(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// RespondEngineError maps a classified engine error to its HTTP status and
// writes the structured response.
func RespondEngineError(c *gin.Context, err error) {
	var ee *EngineError
	if !errors.As(err, &ee) {
		JSONError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch ee.Code {
	case CodeInvalidParameters:
		status = http.StatusBadRequest
	case CodeUnauthorized:
		status = http.StatusUnauthorized
	case CodeProviderUnavailable:
		status = http.StatusServiceUnavailable
	case CodeBookingRejected:
		status = http.StatusConflict
	}

	details := ""
	if ee.Err != nil {
		details = ee.Err.Error()
	}
	Logger := GetLogger()
	Logger.Warn(ee.Message, zap.String("kind", ee.Code), zap.String("details", details))
	c.JSON(status, ErrorResponse{Kind: ee.Code, Message: ee.Message, Details: details})
}
