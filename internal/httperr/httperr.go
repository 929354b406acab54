package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

// FromError answers a panel request with the upstream failure. 401 becomes
// session_expired, other API errors keep their status, business errors are
// 409 and anything else is treated as the API being unreachable.
func FromError(c *gin.Context, err error, fallback string) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusUnauthorized {
			Unauthorized(c, "session_expired", "Sessão expirada. Faça login novamente.")
			return
		}
		Write(c, apiErr.Status, "upstream_error", Message(err, fallback))
		return
	}

	var be BusinessError
	if errors.As(err, &be) {
		Write(c, http.StatusConflict, be.Code, Message(err, fallback))
		return
	}

	Write(c, http.StatusBadGateway, "api_unreachable", fallback)
}
