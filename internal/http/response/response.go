package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/services"
)

// APIError is the body of every failed request. Action hints what the client
// should do next: "reload" when its view is stale, "sign_in" when the token
// is missing or expired.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Action  string `json:"action,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

const (
	ActionReload = "reload"
	ActionSignIn = "sign_in"
)

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
			Action:  actionFor(status),
		},
	})
}

// RespondServiceError maps an aggregate/service error onto its HTTP status.
// Internal failures never leak their cause.
func RespondServiceError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrUnauthenticated) {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	code := domainagg.CodeOf(err)
	status := StatusFor(code)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, string(domainagg.CodeInternal), errors.New("internal error"))
		return
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) && aggErr.Message != "" {
		RespondError(c, status, string(code), errors.New(aggErr.Message))
		return
	}
	RespondError(c, status, string(code), err)
}

func StatusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeForbidden:
		return http.StatusForbidden
	case domainagg.CodeConflict, domainagg.CodeInvariantViolation:
		return http.StatusConflict
	case domainagg.CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func actionFor(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return ActionSignIn
	case http.StatusConflict, http.StatusPreconditionFailed, http.StatusServiceUnavailable, http.StatusInternalServerError:
		return ActionReload
	}
	return ""
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
