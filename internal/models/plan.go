package models

// Plan is one entry of GET /subscriptions/plans.
type Plan struct {
	Tier         string          `json:"tier"`
	Name         string          `json:"name"`
	PriceMonthly float64         `json:"price_monthly"`
	Features     map[string]bool `json:"features,omitempty"`
	Limits       map[string]int  `json:"limits,omitempty"`
}

func (p Plan) Has(feature string) bool {
	return p.Features[feature]
}
