package models

// Company is the authenticated tenant (empresa). The login response and
// GET /empresas/me both carry it.
type Company struct {
	ID       int64  `json:"id"`
	Name     string `json:"nome_empresa"`
	Niche    string `json:"nicho"`
	Phone    string `json:"telefone,omitempty"`
	Email    string `json:"email_login"`
	PlanTier string `json:"plano_empresa,omitempty"`
	LogoURL  string `json:"logo_url,omitempty"`
}

// CompanyUpdate is the body of PUT /empresas/me. Nil fields are not sent.
type CompanyUpdate struct {
	Name  *string `json:"nome_empresa,omitempty"`
	Niche *string `json:"nicho,omitempty"`
	Phone *string `json:"telefone,omitempty"`
}

func (c *Company) Plan() string {
	if c == nil || c.PlanTier == "" {
		return "free"
	}
	return c.PlanTier
}
