package models

// Metrics is the dashboard bundle. The local fallback fills the same fields.
type Metrics struct {
	ClientsCount      int     `json:"clientsCount"`
	AppointmentsToday int     `json:"appointmentsToday"`
	MonthlyRevenue    float64 `json:"monthlyRevenue"`
	RetentionRate     float64 `json:"retentionRate"`
}

type RevenuePoint struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type StatusSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color,omitempty"`
}

// FlowStats is the sales funnel derived from client statuses.
type FlowStats struct {
	Invited   int `json:"convidados"`
	Quotes    int `json:"orcamentos"`
	Approved  int `json:"aprovados"`
	Completed int `json:"concluidos"`
}
