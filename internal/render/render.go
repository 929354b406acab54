// Package render turns dashboard and editor data into view descriptions.
// Every function is pure: same input, same output, no retained state.
package render

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/BruksfildServices01/clientflow/internal/dashboard"
	"github.com/BruksfildServices01/clientflow/internal/editor"
	"github.com/BruksfildServices01/clientflow/internal/models"
	"github.com/BruksfildServices01/clientflow/internal/timezone"
)

type Card struct {
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// Currency formats v as Brazilian reais: R$ 1.234,56.
func Currency(v float64) string {
	p := message.NewPrinter(language.BrazilianPortuguese)
	return "R$ " + p.Sprintf("%.2f", v)
}

func StatCards(m *models.Metrics) []Card {
	if m == nil {
		m = &models.Metrics{}
	}
	p := message.NewPrinter(language.BrazilianPortuguese)
	return []Card{
		{Icon: "👥", Title: "Clientes Ativos", Value: p.Sprintf("%d", m.ClientsCount)},
		{Icon: "🛠️", Title: "Atendimentos Hoje", Value: p.Sprintf("%d", m.AppointmentsToday)},
		{Icon: "💰", Title: "Faturamento (Mês)", Value: Currency(m.MonthlyRevenue)},
		{Icon: "📈", Title: "Taxa de Retenção", Value: p.Sprintf("%.1f%%", m.RetentionRate)},
	}
}

func FlowCards(f models.FlowStats) []Card {
	p := message.NewPrinter(language.BrazilianPortuguese)
	return []Card{
		{Icon: "📨", Title: "Clientes Convidados", Value: p.Sprintf("%d", f.Invited)},
		{Icon: "📋", Title: "Orçamentos Abertos", Value: p.Sprintf("%d", f.Quotes)},
		{Icon: "✓", Title: "Aprovados", Value: p.Sprintf("%d", f.Approved)},
		{Icon: "🎉", Title: "Concluídos", Value: p.Sprintf("%d", f.Completed)},
	}
}

type ChartOptions struct {
	Title string
	// Height in rows or pixels, whatever the shell draws with. 0 means 10.
	Height int
}

type Bar struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
	// Level is the bar height scaled to Height.
	Level int `json:"level"`
}

type Chart struct {
	Title  string  `json:"title"`
	Height int     `json:"height"`
	Bars   []Bar   `json:"bars"`
	Max    float64 `json:"max"`
	Empty  bool    `json:"empty"`
}

func RevenueChart(points []models.RevenuePoint, opts ChartOptions) Chart {
	if opts.Title == "" {
		opts.Title = "Faturamento"
	}
	if opts.Height <= 0 {
		opts.Height = 10
	}
	chart := Chart{Title: opts.Title, Height: opts.Height, Bars: []Bar{}, Empty: len(points) == 0}

	for _, pt := range points {
		chart.Max = math.Max(chart.Max, pt.Revenue)
	}
	for _, pt := range points {
		level := 0
		if chart.Max > 0 && pt.Revenue > 0 {
			level = int(math.Round(pt.Revenue / chart.Max * float64(opts.Height)))
		}
		chart.Bars = append(chart.Bars, Bar{
			Label:     pt.Month,
			Value:     pt.Revenue,
			Formatted: Currency(pt.Revenue),
			Level:     level,
		})
	}
	return chart
}

// cores padrão por status
var statusColors = map[string]string{
	"concluido":    "#10b981",
	"em_andamento": "#3b82f6",
	"pendente":     "#f97316",
	"entregue":     "#06b6d4",
	"confirmado":   "#10b981",
	"cancelado":    "#ef4444",
}

const fallbackColor = "#9ca3af"

type Slice struct {
	Name    string `json:"name"`
	Value   int    `json:"value"`
	Color   string `json:"color"`
	Percent int    `json:"percent"`
}

type Donut struct {
	Title  string  `json:"title"`
	Total  int     `json:"total"`
	Slices []Slice `json:"slices"`
	Empty  bool    `json:"empty"`
}

func StatusDonut(slices []models.StatusSlice, opts ChartOptions) Donut {
	if opts.Title == "" {
		opts.Title = "Status dos Atendimentos"
	}
	d := Donut{Title: opts.Title, Slices: []Slice{}}
	for _, s := range slices {
		d.Total += s.Value
	}
	for _, s := range slices {
		color := s.Color
		if color == "" {
			color = statusColor(s.Name)
		}
		pct := 0
		if d.Total > 0 {
			pct = int(math.Round(float64(s.Value) / float64(d.Total) * 100))
		}
		d.Slices = append(d.Slices, Slice{Name: s.Name, Value: s.Value, Color: color, Percent: pct})
	}
	d.Empty = d.Total == 0
	return d
}

func statusColor(name string) string {
	if c, ok := statusColors[dashboard.NormalizeStatus(name)]; ok {
		return c
	}
	return fallbackColor
}

var statusLabels = map[string]string{
	"em_andamento": "Em Andamento",
	"pendente":     "Pendente",
	"concluido":    "Concluído",
	"entregue":     "Entregue",
	"confirmado":   "Confirmado",
	"cancelado":    "Cancelado",
}

// StatusLabel is the badge text for a status; unknown values read as Pendente.
func StatusLabel(status string) string {
	if l, ok := statusLabels[dashboard.NormalizeStatus(status)]; ok {
		return l
	}
	return statusLabels["pendente"]
}

type Table struct {
	Columns      []string   `json:"columns"`
	Rows         [][]string `json:"rows"`
	EmptyMessage string     `json:"emptyMessage,omitempty"`
}

func ClientsTable(clients []models.Client) Table {
	t := Table{
		Columns: []string{"Cliente", "Contato", "Serviço", "Status", "Valor"},
		Rows:    [][]string{},
	}
	if len(clients) == 0 {
		t.EmptyMessage = "Você ainda não possui clientes cadastrados."
		return t
	}
	for _, c := range clients {
		t.Rows = append(t.Rows, []string{
			c.Name,
			c.Phone,
			c.Service,
			StatusLabel(c.Status),
			Currency(float64(c.Value)),
		})
	}
	return t
}

type ListItem struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	When     string `json:"when"`
	Badge    string `json:"badge"`
}

// AppointmentsList formats dates as dd/mm/yyyy hh:mm in loc. Dates that do
// not parse are shown as received.
func AppointmentsList(appointments []models.Appointment, loc *time.Location) []ListItem {
	items := make([]ListItem, 0, len(appointments))
	for _, a := range appointments {
		when := a.Date
		if t, ok := timezone.ParseIn(a.Date, loc); ok {
			when = t.Format("02/01/2006 15:04")
		}
		title := a.ClientName
		if title == "" {
			title = a.ServiceType
		}
		items = append(items, ListItem{
			Title:    title,
			Subtitle: a.ServiceType,
			When:     when,
			Badge:    StatusLabel(a.Status),
		})
	}
	return items
}

type Input struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
	Value   string   `json:"value"`
}

type FormView struct {
	Title   string  `json:"title"`
	State   string  `json:"state"`
	Inputs  []Input `json:"inputs"`
	Error   string  `json:"error,omitempty"`
	Busy    bool    `json:"busy"`
	Visible bool    `json:"visible"`
}

var kindTitles = map[string]string{
	"clientes":     "Editar cliente",
	"atendimentos": "Editar atendimento",
}

func EditorForm(form editor.Form) FormView {
	v := FormView{
		Title:   kindTitles[form.Kind],
		State:   string(form.State),
		Inputs:  []Input{},
		Error:   form.Error,
		Busy:    form.State == editor.StateLoading || form.State == editor.StateSubmitting,
		Visible: form.State != editor.StateClosed,
	}
	if v.Title == "" {
		v.Title = "Editar registro"
	}
	for _, f := range form.Fields {
		v.Inputs = append(v.Inputs, Input{
			Name:    f.Name,
			Label:   f.Label,
			Type:    string(f.Control),
			Options: f.Options,
			Value:   inputValue(f),
		})
	}
	return v
}

func inputValue(f editor.Field) string {
	switch v := f.Value.(type) {
	case nil:
		return ""
	case string:
		if f.Control == editor.ControlDate && len(v) >= len(timezone.DayLayout) {
			return v[:len(timezone.DayLayout)]
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
