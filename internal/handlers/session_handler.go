package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/session"
)

type SessionHandler struct {
	svc   *session.Service
	store *session.Store
	log   *zap.Logger
}

func NewSessionHandler(svc *session.Service, store *session.Store, log *zap.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, store: store, log: log}
}

// --------- Requests ---------

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// --------- Handlers ---------

func (h *SessionHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Informe um e-mail válido e a senha.")
		return
	}

	company, err := h.svc.Login(c.Request.Context(), session.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		var loginErr *session.LoginError
		if errors.As(err, &loginErr) {
			loginFailed(c, loginErr)
			return
		}
		httperr.FromError(c, err, "Erro ao fazer login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"company":       company,
	})
}

// loginFailed answers 401 when the credentials were refused and lets
// FromError map the rest, so an unreachable API is a 502.
func loginFailed(c *gin.Context, e *session.LoginError) {
	var (
		apiErr  *httperr.APIError
		invalid validator.ValidationErrors
	)
	switch {
	case e.Err == nil:
		httperr.Unauthorized(c, "login_failed", e.Message)
	case errors.As(e.Err, &invalid):
		httperr.BadRequest(c, "invalid_request", e.Message)
	case errors.As(e.Err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		httperr.Unauthorized(c, "login_failed", e.Message)
	default:
		httperr.FromError(c, e.Err, e.Message)
	}
}

func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context()); err != nil {
		h.log.Error("logout failed", zap.Error(err))
		httperr.Internal(c, "logout_failed", "Erro ao sair.")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Current(c *gin.Context) {
	sess := h.store.Current()
	seen, err := h.store.OnboardingSeen(c.Request.Context())
	if err != nil {
		h.log.Warn("failed to read onboarding flag", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated":   sess.Authenticated(),
		"company":         sess.Company,
		"onboarding_seen": seen,
	})
}

func (h *SessionHandler) MarkOnboardingSeen(c *gin.Context) {
	if err := h.store.MarkOnboardingSeen(c.Request.Context()); err != nil {
		httperr.Internal(c, "storage_error", "Erro ao salvar preferência.")
		return
	}
	c.Status(http.StatusNoContent)
}
