package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/config"
	"github.com/BruksfildServices01/clientflow/internal/handlers"
	"github.com/BruksfildServices01/clientflow/internal/middleware"
	"github.com/BruksfildServices01/clientflow/internal/session"
)

type Handlers struct {
	Session   *handlers.SessionHandler
	Dashboard *handlers.DashboardHandler
	Editor    *handlers.EditorHandler
	Company   *handlers.CompanyHandler
	Plans     *handlers.PlansHandler
}

func NewRouter(cfg *config.Config, log *zap.Logger, store *session.Store, h Handlers) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// ======================================================
	// 🌍 MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPM)

	panel := r.Group("/panel")

	// ======================================================
	// 🔓 SESSÃO
	// ======================================================
	panel.POST("/login", limiter.Handler(), h.Session.Login)
	panel.POST("/logout", h.Session.Logout)
	panel.GET("/session", h.Session.Current)
	panel.POST("/onboarding", h.Session.MarkOnboardingSeen)

	// ======================================================
	// 🔐 ROTAS PROTEGIDAS
	// ======================================================
	protected := panel.Group("")
	protected.Use(middleware.RequireSession(store))

	protected.GET("/dashboard", h.Dashboard.Get)
	protected.GET("/analytics", h.Dashboard.Analytics)

	editor := protected.Group("/editor")
	{
		editor.GET("", h.Editor.Current)
		editor.DELETE("", h.Editor.Close)
		editor.GET("/:kind/:id", h.Editor.Open)
		editor.PUT("/:kind/:id", h.Editor.Submit)
	}

	company := protected.Group("/company")
	{
		company.GET("", h.Company.Get)
		company.PUT("", h.Company.Update)
		company.POST("/logo", h.Company.UploadLogo)
	}

	protected.GET("/plans", h.Plans.List)
	protected.POST("/plans/:tier/checkout", h.Plans.Checkout)

	return r
}
