package billing

import (
	"context"
	"fmt"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/models"
)

// PreferenceCreator is the Mercado Pago preference client.
type PreferenceCreator interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

// NewPreferenceClient returns nil when no access token is configured.
func NewPreferenceClient(accessToken string) (PreferenceCreator, error) {
	if accessToken == "" {
		return nil, nil
	}
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return preference.NewClient(cfg), nil
}

type Checkout struct {
	catalog *Catalog
	prefs   PreferenceCreator
	backURL string
	log     *zap.Logger
}

func NewCheckout(catalog *Catalog, prefs PreferenceCreator, backURL string, log *zap.Logger) *Checkout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checkout{catalog: catalog, prefs: prefs, backURL: backURL, log: log}
}

// Link creates a one-item preference for tier and returns its init point.
func (c *Checkout) Link(ctx context.Context, company *models.Company, tier string) (string, error) {
	if c.prefs == nil {
		return "", httperr.ErrBusinessMsg("checkout_unavailable", "Pagamento online indisponível")
	}
	if company == nil {
		return "", httperr.ErrBusiness("no_session")
	}

	plans, _ := c.catalog.Plans(ctx)
	plan, ok := Find(plans, tier)
	if !ok {
		return "", httperr.ErrBusinessMsg("plan_not_found", "Plano não encontrado")
	}
	if plan.PriceMonthly <= 0 {
		return "", httperr.ErrBusinessMsg("plan_is_free", "O plano gratuito não precisa de pagamento")
	}
	if company.Plan() == plan.Tier {
		return "", httperr.ErrBusinessMsg("plan_already_active", "Este já é o plano atual")
	}

	req := preference.Request{
		Items: []preference.ItemRequest{
			{
				ID:         plan.Tier,
				Title:      plan.Name,
				Quantity:   1,
				UnitPrice:  plan.PriceMonthly,
				CurrencyID: "BRL",
			},
		},
		ExternalReference: fmt.Sprintf("empresa:%d:plan:%s", company.ID, plan.Tier),
	}
	if c.backURL != "" {
		req.BackURLs = &preference.BackURLsRequest{
			Success: c.backURL + "?status=success",
			Pending: c.backURL + "?status=pending",
			Failure: c.backURL + "?status=failure",
		}
		req.AutoReturn = "approved"
	}

	res, err := c.prefs.Create(ctx, req)
	if err != nil {
		c.log.Error("checkout preference failed",
			zap.Int64("company_id", company.ID),
			zap.String("tier", tier),
			zap.Error(err),
		)
		return "", fmt.Errorf("create preference: %w", err)
	}

	c.log.Info("checkout preference created",
		zap.Int64("company_id", company.ID),
		zap.String("tier", tier),
		zap.String("preference_id", res.ID),
	)
	return res.InitPoint, nil
}
