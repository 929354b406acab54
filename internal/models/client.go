package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Cliente da empresa. Cópia somente leitura do que a API devolve.
type Client struct {
	ID           int64  `json:"id"`
	Name         string `json:"nome"`
	Phone        string `json:"telefone"`
	Status       string `json:"status"`
	Service      string `json:"servico,omitempty"`
	Value        Amount `json:"valor"`
	FirstContact string `json:"data_primeiro_contato,omitempty"`
}

// Amount accepts a JSON number, a numeric string or null.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(strings.ReplaceAll(str, ",", "."))
		if str == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			*a = 0
			return nil
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}
