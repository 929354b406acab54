package editor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/BruksfildServices01/clientflow/internal/apiclient"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
)

type Control string

const (
	ControlText     Control = "text"
	ControlNumber   Control = "number"
	ControlDate     Control = "date"
	ControlTextarea Control = "textarea"
	ControlSelect   Control = "select"
)

// textareaThreshold is the string length above which a field gets a
// multi-line control.
const textareaThreshold = 60

// Excluded never reach the form: the record id and owner references.
var Excluded = map[string]bool{
	"id":         true,
	"empresa_id": true,
	"cliente_id": true,
}

// FieldSpec declares how a field is edited.
type FieldSpec struct {
	Name    string
	Label   string
	Control Control
	Options []string
}

// Schemas maps a record kind to its declared fields, in display order.
type Schemas map[string][]FieldSpec

var (
	ClientStatuses      = []string{"pendente", "em_andamento", "concluido", "entregue"}
	AppointmentStatuses = []string{"pendente", "confirmado", "em_andamento", "concluido", "cancelado"}
)

// DefaultSchemas covers the kinds the panel edits.
var DefaultSchemas = Schemas{
	apiclient.KindClient: {
		{Name: "nome", Label: "Nome", Control: ControlText},
		{Name: "telefone", Label: "Telefone", Control: ControlText},
		{Name: "servico", Label: "Serviço", Control: ControlText},
		{Name: "valor", Label: "Valor (R$)", Control: ControlNumber},
		{Name: "status", Label: "Status", Control: ControlSelect, Options: ClientStatuses},
		{Name: "data_primeiro_contato", Label: "Primeiro contato", Control: ControlDate},
	},
	apiclient.KindAppointment: {
		{Name: "tipo_servico", Label: "Tipo de serviço", Control: ControlText},
		{Name: "descricao", Label: "Descrição", Control: ControlTextarea},
		{Name: "status", Label: "Status", Control: ControlSelect, Options: AppointmentStatuses},
		{Name: "data", Label: "Data", Control: ControlDate},
	},
}

// Field is one editable input with its current value.
type Field struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Control Control  `json:"control"`
	Options []string `json:"options,omitempty"`
	Value   any      `json:"value"`
}

// DeriveFields lists the record's own keys minus Excluded. Declared fields
// come first in schema order; the rest follow alphabetically and are
// classified by Classify.
func DeriveFields(kind string, record map[string]any, schemas Schemas) []Field {
	declared := map[string]FieldSpec{}
	var order []string
	for _, spec := range schemas[kind] {
		declared[spec.Name] = spec
		order = append(order, spec.Name)
	}

	var rest []string
	for name := range record {
		if Excluded[name] {
			continue
		}
		if _, ok := declared[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	fields := make([]Field, 0, len(record))
	for _, name := range order {
		value, ok := record[name]
		if !ok || Excluded[name] {
			continue
		}
		spec := declared[name]
		if spec.Label == "" {
			spec.Label = humanize(name)
		}
		fields = append(fields, Field{Name: name, Label: spec.Label, Control: spec.Control, Options: spec.Options, Value: value})
	}
	for _, name := range rest {
		value := record[name]
		ctrl, opts := Classify(kind, name, value)
		fields = append(fields, Field{Name: name, Label: humanize(name), Control: ctrl, Options: opts, Value: value})
	}
	return fields
}

// Classify picks a control for an undeclared field from its name and value.
func Classify(kind, name string, value any) (Control, []string) {
	lower := strings.ToLower(name)
	switch {
	case lower == "status":
		if kind == apiclient.KindAppointment {
			return ControlSelect, AppointmentStatuses
		}
		return ControlSelect, ClientStatuses
	case strings.Contains(lower, "date") || strings.Contains(lower, "data"):
		return ControlDate, nil
	}

	switch v := value.(type) {
	case string:
		if len([]rune(v)) > textareaThreshold {
			return ControlTextarea, nil
		}
	case float64, float32, int, int64, json.Number:
		return ControlNumber, nil
	}
	return ControlText, nil
}

func humanize(name string) string {
	return cases.Title(language.BrazilianPortuguese).String(strings.ReplaceAll(name, "_", " "))
}

// coerce builds the PUT body from the derived fields, taking entered values
// where given. Number fields are parsed back to numbers; an empty entry
// becomes null. Keys outside the field list are ignored.
func coerce(fields []Field, values map[string]any) (map[string]any, []Field, error) {
	payload := make(map[string]any, len(fields))
	updated := make([]Field, len(fields))
	var firstErr error

	for i, f := range fields {
		v, entered := values[f.Name]
		if !entered {
			v = f.Value
		}
		updated[i] = f
		updated[i].Value = v

		if f.Control != ControlNumber {
			payload[f.Name] = v
			continue
		}
		n, err := toNumber(v)
		if err != nil {
			if firstErr == nil {
				firstErr = httperr.ErrBusinessMsg("invalid_number", fmt.Sprintf("%s: informe um número válido", f.Label))
			}
			continue
		}
		payload[f.Name] = n
	}
	if firstErr != nil {
		return nil, updated, firstErr
	}
	return payload, updated, nil
}

func toNumber(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil, nil
		}
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}
		return strconv.ParseFloat(s, 64)
	}
	return nil, fmt.Errorf("not a number: %T", v)
}

// NewRecord builds a create body from entered values. Declared number
// fields and *_id references are parsed as numbers; blank entries are left
// out.
func NewRecord(kind string, values map[string]any, schemas Schemas) (map[string]any, error) {
	declared := map[string]FieldSpec{}
	for _, spec := range schemas[kind] {
		declared[spec.Name] = spec
	}

	body := make(map[string]any, len(values))
	for name, v := range values {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		spec, isDeclared := declared[name]
		numeric := strings.HasSuffix(name, "_id") || (isDeclared && spec.Control == ControlNumber)
		if !numeric {
			body[name] = v
			continue
		}
		n, err := toNumber(v)
		if err != nil {
			label := spec.Label
			if label == "" {
				label = humanize(name)
			}
			return nil, httperr.ErrBusinessMsg("invalid_number", fmt.Sprintf("%s: informe um número válido", label))
		}
		body[name] = n
	}
	if len(body) == 0 {
		return nil, httperr.ErrBusinessMsg("empty_record", "Informe ao menos um campo.")
	}
	return body, nil
}
