// Package billing lists the subscription plans and creates checkout links.
package billing

import (
	"context"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/models"
)

const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

var baseFeatures = map[string]bool{
	"clientes":     true,
	"atendimentos": true,
	"dashboard":    true,
}

func withFeatures(extra ...string) map[string]bool {
	out := make(map[string]bool, len(baseFeatures)+len(extra))
	for k, v := range baseFeatures {
		out[k] = v
	}
	for _, f := range extra {
		out[f] = true
	}
	return out
}

var proFeatures = []string{"csv_export", "whatsapp_integration", "analytics_advanced", "api_access", "support_email"}

// StaticPlans is used when the plans endpoint is unavailable.
var StaticPlans = []models.Plan{
	{
		Tier:         TierFree,
		Name:         "Plano Gratuito",
		PriceMonthly: 0,
		Features:     withFeatures(),
		Limits:       map[string]int{"max_clientes": 100, "max_atendimentos": 1000, "max_usuarios": 1, "api_requests_per_day": 0},
	},
	{
		Tier:         TierPro,
		Name:         "Plano Profissional",
		PriceMonthly: 99,
		Features:     withFeatures(proFeatures...),
		Limits:       map[string]int{"max_clientes": 10000, "max_atendimentos": 100000, "max_usuarios": 5, "api_requests_per_day": 100000},
	},
	{
		Tier:         TierEnterprise,
		Name:         "Plano Enterprise",
		PriceMonthly: 999,
		Features:     withFeatures(append(proFeatures, "custom_domain", "sso", "custom_api", "phone_support", "dedicated_account_manager")...),
		Limits:       map[string]int{"max_clientes": 999999, "max_atendimentos": 999999, "max_usuarios": 999, "api_requests_per_day": 999999},
	},
}

// PlanSource is GET /subscriptions/plans.
type PlanSource interface {
	Plans(ctx context.Context) ([]models.Plan, error)
}

type Catalog struct {
	src PlanSource
	log *zap.Logger
}

func NewCatalog(src PlanSource, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{src: src, log: log}
}

// Plans returns the remote catalog, or StaticPlans when the endpoint fails
// or answers with nothing. The bool reports whether the fallback was used.
func (c *Catalog) Plans(ctx context.Context) ([]models.Plan, bool) {
	plans, err := c.src.Plans(ctx)
	if err != nil || len(plans) == 0 {
		if err != nil {
			c.log.Warn("plans endpoint unavailable, using static catalog", zap.Error(err))
		}
		out := make([]models.Plan, len(StaticPlans))
		copy(out, StaticPlans)
		return out, true
	}
	return plans, false
}

// Find looks tier up in plans.
func Find(plans []models.Plan, tier string) (models.Plan, bool) {
	for _, p := range plans {
		if p.Tier == tier {
			return p, true
		}
	}
	return models.Plan{}, false
}
