package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"farcaster-claim-backend/internal/common/errors"
)

// ErrorHandler recovers panics and renders any error pushed onto the gin
// error list as a structured JSON response. No error crashes the claim flow;
// every failure lands in a defined response.
func ErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				requestID := getRequestID(c)

				logger.Error().
					Str("request_id", requestID).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Interface("panic", recovered).
					Str("stack", string(debug.Stack())).
					Msg("Panic recovered")

				appErr := errors.New(errors.ErrCodeInternal, "Internal server error").
					WithRequestID(requestID).
					WithDetail("panic", fmt.Sprintf("%v", recovered))

				sendErrorResponse(c, appErr, logger)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := errors.AsAppError(err)
		if !ok {
			appErr = errors.Wrap(err, errors.ErrCodeInternal, "Handler error occurred")
		}

		sendErrorResponse(c, appErr, logger)
	}
}

// RequestID assigns a request id, honoring one supplied by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// ErrorResponse is the envelope for all error payloads.
type ErrorResponse struct {
	Success   bool             `json:"success"`
	Error     *errors.AppError `json:"error"`
	Timestamp time.Time        `json:"timestamp"`
	RequestID string           `json:"request_id"`
	Path      string           `json:"path,omitempty"`
}

func sendErrorResponse(c *gin.Context, appErr *errors.AppError, logger zerolog.Logger) {
	requestID := getRequestID(c)
	appErr.WithRequestID(requestID)

	statusCode := httpStatusFor(appErr)

	response := ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: requestID,
		Path:      c.Request.URL.Path,
	}

	logError(appErr, logger, c)

	c.AbortWithStatusJSON(statusCode, response)
}

func httpStatusFor(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.ErrCodeValidation, errors.ErrCodeBadRequest, errors.ErrCodeInvalidTransition:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeCampaignNotFound, errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeIneligible, errors.ErrCodeCampaignInactive:
		return http.StatusForbidden
	case errors.ErrCodeWallet:
		return http.StatusConflict
	case errors.ErrCodeDataFetch, errors.ErrCodeExternalAPI:
		return http.StatusBadGateway
	case errors.ErrCodeReceiptResolution:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeCacheError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func logError(appErr *errors.AppError, logger zerolog.Logger, c *gin.Context) {
	event := logger.Error()
	if appErr.IsUserFacing() || appErr.IsNotFound() {
		event = logger.Info()
	}

	event = event.
		Str("request_id", getRequestID(c)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("error_code", string(appErr.Code)).
		Str("error_message", appErr.Message)

	if appErr.Cause != nil {
		event = event.Err(appErr.Cause)
	}

	event.Msg("Request failed")
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return "unknown"
}
