package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/internlink/internal/apperr"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = apperr.NotFound("not_found", "not found")
	ErrInvalidRequest = apperr.Validation("invalid_request", "invalid request")
	ErrAdminOnly      = apperr.Forbidden("admin_only", "administrator access required")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError(message string) error {
	if message == "" {
		return ErrInvalidRequest
	}
	return ErrInvalidRequest.WithMessage(message)
}

// mapError renders business errors with their own code and message. Anything
// else is an infrastructure failure and is reported without detail.
func mapError(err error) (int, errorPayload) {
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Code:    "unauthorized",
			Message: "unauthorized",
		}
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    string(apperr.KindInternal),
			Code:    "internal_error",
			Message: "internal server error",
		}
	}

	return statusForKind(appErr.Kind), errorPayload{
		Type:    string(appErr.Kind),
		Code:    appErr.Code,
		Message: appErr.Message,
	}
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden, apperr.KindCommunicationBlocked:
		return http.StatusForbidden
	case apperr.KindConflict, apperr.KindInvalidState:
		return http.StatusConflict
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func classifyErrorForLog(err error) (string, string) {
	if errors.Is(err, ErrUnauthorized) {
		return "unauthorized", "unauthorized"
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr != nil {
		return string(appErr.Kind), appErr.Code
	}
	return string(apperr.KindInternal), "internal_error"
}
