package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clientflow/internal/apiclient"
	"github.com/BruksfildServices01/clientflow/internal/dashboard"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/render"
	"github.com/BruksfildServices01/clientflow/internal/session"
)

type DashboardHandler struct {
	cache *dashboard.Cache
	store *session.Store
	api   *apiclient.DashboardService
	loc   *time.Location
}

func NewDashboardHandler(cache *dashboard.Cache, store *session.Store, api *apiclient.Client, loc *time.Location) *DashboardHandler {
	return &DashboardHandler{cache: cache, store: store, api: api.Dashboard(), loc: loc}
}

type DashboardResponse struct {
	Cards           []render.Card     `json:"cards"`
	Flow            []render.Card     `json:"flow"`
	Revenue         render.Chart      `json:"revenue"`
	Status          render.Donut      `json:"status"`
	Clients         render.Table      `json:"clients"`
	Appointments    []render.ListItem `json:"appointments"`
	MetricsFallback bool              `json:"metricsFallback"`
	Error           string            `json:"error,omitempty"`
}

// Get renders the cached view of the current session, loading it when
// missing or invalidated. Only a 401 turns into an error response; other
// failures come back as an empty view with Error set.
func (h *DashboardHandler) Get(c *gin.Context) {
	view, err := h.cache.View(c.Request.Context(), h.store.Token())
	if err != nil && httperr.IsUnauthorized(err) {
		httperr.FromError(c, err, dashboard.LoadErrorMessage)
		return
	}

	c.JSON(http.StatusOK, DashboardResponse{
		Cards:           render.StatCards(view.Metrics),
		Flow:            render.FlowCards(view.Flow),
		Revenue:         render.RevenueChart(view.Revenue, render.ChartOptions{}),
		Status:          render.StatusDonut(view.Status, render.ChartOptions{}),
		Clients:         render.ClientsTable(view.Clients),
		Appointments:    render.AppointmentsList(view.Appointments, h.loc),
		MetricsFallback: view.MetricsFallback,
		Error:           view.Error,
	})
}

func (h *DashboardHandler) Analytics(c *gin.Context) {
	period := c.DefaultQuery("period", "30d")
	if !slices.Contains(apiclient.AnalyticsPeriods, period) {
		httperr.BadRequest(c, "invalid_period", "Período inválido. Use today, 7d, 30d ou month.")
		return
	}

	out, err := h.api.Analytics(c.Request.Context(), period)
	if err != nil {
		httperr.FromError(c, err, "Erro ao carregar análises")
		return
	}
	c.JSON(http.StatusOK, out)
}
