package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clientflow/internal/billing"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/session"
)

type PlansHandler struct {
	catalog  *billing.Catalog
	checkout *billing.Checkout
	store    *session.Store
}

func NewPlansHandler(catalog *billing.Catalog, checkout *billing.Checkout, store *session.Store) *PlansHandler {
	return &PlansHandler{catalog: catalog, checkout: checkout, store: store}
}

func (h *PlansHandler) List(c *gin.Context) {
	plans, fallback := h.catalog.Plans(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"plans":        plans,
		"current_tier": h.store.CurrentCompany().Plan(),
		"offline":      fallback,
	})
}

func (h *PlansHandler) Checkout(c *gin.Context) {
	link, err := h.checkout.Link(c.Request.Context(), h.store.CurrentCompany(), c.Param("tier"))
	if err != nil {
		switch {
		case httperr.IsBusiness(err, "plan_not_found"):
			httperr.NotFound(c, "plan_not_found", httperr.Message(err, "Plano não encontrado"))
		case httperr.IsBusiness(err, "checkout_unavailable"):
			httperr.Write(c, http.StatusServiceUnavailable, "checkout_unavailable", httperr.Message(err, ""))
		default:
			httperr.FromError(c, err, "Erro ao iniciar pagamento")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"init_point": link})
}
