package models

// Appointment (atendimento). Date keeps the raw API string so callers can
// decide how to treat values that do not parse.
type Appointment struct {
	ID          int64  `json:"id"`
	ClientID    int64  `json:"cliente_id"`
	ClientName  string `json:"cliente_nome,omitempty"`
	ServiceType string `json:"tipo_servico"`
	Description string `json:"descricao,omitempty"`
	Status      string `json:"status"`
	Date        string `json:"data"`
}
