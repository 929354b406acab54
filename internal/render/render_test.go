package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clientflow/internal/editor"
	"github.com/BruksfildServices01/clientflow/internal/models"
	"github.com/BruksfildServices01/clientflow/internal/timezone"
)

func TestCurrency(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", Currency(1234.56))
	assert.Equal(t, "R$ 0,00", Currency(0))
}

func TestStatCards(t *testing.T) {
	cards := StatCards(&models.Metrics{ClientsCount: 3, AppointmentsToday: 2, MonthlyRevenue: 400, RetentionRate: 94.2})
	require.Len(t, cards, 4)
	assert.Equal(t, "3", cards[0].Value)
	assert.Equal(t, "2", cards[1].Value)
	assert.Equal(t, "R$ 400,00", cards[2].Value)
	assert.Equal(t, "94,2%", cards[3].Value)

	assert.Len(t, StatCards(nil), 4)
}

func TestFlowCards(t *testing.T) {
	cards := FlowCards(models.FlowStats{Invited: 3, Quotes: 1, Approved: 1, Completed: 1})
	assert.Equal(t, "Clientes Convidados", cards[0].Title)
	assert.Equal(t, "3", cards[0].Value)
	assert.Equal(t, "1", cards[3].Value)
}

func TestRevenueChartIsPure(t *testing.T) {
	points := []models.RevenuePoint{{Month: "Ago", Revenue: 500}, {Month: "Set", Revenue: 1000}, {Month: "Out", Revenue: 0}}
	a := RevenueChart(points, ChartOptions{Height: 4})
	b := RevenueChart(points, ChartOptions{Height: 4})
	assert.Equal(t, a, b)

	assert.Equal(t, 1000.0, a.Max)
	assert.Equal(t, []int{2, 4, 0}, []int{a.Bars[0].Level, a.Bars[1].Level, a.Bars[2].Level})
	assert.Equal(t, "R$ 1.000,00", a.Bars[1].Formatted)

	empty := RevenueChart(nil, ChartOptions{})
	assert.True(t, empty.Empty)
	assert.Equal(t, 10, empty.Height)
	assert.NotNil(t, empty.Bars)
}

func TestStatusDonut(t *testing.T) {
	d := StatusDonut([]models.StatusSlice{
		{Name: "Concluído", Value: 3},
		{Name: "pendente", Value: 1, Color: "#000000"},
		{Name: "outro", Value: 0},
	}, ChartOptions{})

	assert.Equal(t, 4, d.Total)
	assert.Equal(t, "#10b981", d.Slices[0].Color)
	assert.Equal(t, 75, d.Slices[0].Percent)
	assert.Equal(t, "#000000", d.Slices[1].Color)
	assert.Equal(t, fallbackColor, d.Slices[2].Color)
	assert.False(t, d.Empty)

	assert.True(t, StatusDonut(nil, ChartOptions{}).Empty)
}

func TestClientsTable(t *testing.T) {
	empty := ClientsTable(nil)
	assert.NotEmpty(t, empty.EmptyMessage)
	assert.Empty(t, empty.Rows)

	tbl := ClientsTable([]models.Client{{Name: "Ana", Phone: "11 9999", Service: "Corte", Status: "em_andamento", Value: 80}})
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"Ana", "11 9999", "Corte", "Em Andamento", "R$ 80,00"}, tbl.Rows[0])
}

func TestAppointmentsList(t *testing.T) {
	loc := timezone.Location(timezone.DefaultTimezone)
	items := AppointmentsList([]models.Appointment{
		{ClientName: "Ana", ServiceType: "Corte", Status: "confirmado", Date: "2026-10-17T14:30:00"},
		{ServiceType: "Barba", Status: "??", Date: "depois"},
	}, loc)

	require.Len(t, items, 2)
	assert.Equal(t, "17/10/2026 14:30", items[0].When)
	assert.Equal(t, "Confirmado", items[0].Badge)
	assert.Equal(t, "Barba", items[1].Title)
	assert.Equal(t, "depois", items[1].When)
	assert.Equal(t, "Pendente", items[1].Badge)
}

func TestEditorForm(t *testing.T) {
	v := EditorForm(editor.Form{
		State: editor.StateReady,
		Kind:  "clientes",
		ID:    5,
		Fields: []editor.Field{
			{Name: "valor", Label: "Valor", Control: editor.ControlNumber, Value: 150.5},
			{Name: "data_primeiro_contato", Label: "Primeiro contato", Control: editor.ControlDate, Value: "2026-10-01T00:00:00"},
			{Name: "telefone", Label: "Telefone", Control: editor.ControlText, Value: nil},
		},
	})

	assert.Equal(t, "Editar cliente", v.Title)
	assert.True(t, v.Visible)
	assert.False(t, v.Busy)
	assert.Equal(t, "150.5", v.Inputs[0].Value)
	assert.Equal(t, "2026-10-01", v.Inputs[1].Value)
	assert.Equal(t, "date", v.Inputs[1].Type)
	assert.Equal(t, "", v.Inputs[2].Value)

	closed := EditorForm(editor.Form{State: editor.StateClosed})
	assert.False(t, closed.Visible)
	assert.Empty(t, closed.Inputs)
}
