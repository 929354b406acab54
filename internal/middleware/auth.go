package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/session"
)

const (
	ContextCompanyID = "companyID"
	ContextPlanTier  = "planTier"
)

// SessionSource is the panel's operator session.
type SessionSource interface {
	Current() session.Session
}

// RequireSession answers 401 while the panel has no authenticated session.
func RequireSession(sessions SessionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Current()
		if !sess.Authenticated() {
			httperr.Write(c, http.StatusUnauthorized, "not_authenticated", "Faça login para continuar.")
			c.Abort()
			return
		}

		if sess.Company != nil {
			c.Set(ContextCompanyID, sess.Company.ID)
			c.Set(ContextPlanTier, sess.Company.Plan())
		}

		c.Next()
	}
}
