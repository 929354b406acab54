package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/BruksfildServices01/clientflow/internal/dashboard"
	"github.com/BruksfildServices01/clientflow/internal/models"
	"github.com/BruksfildServices01/clientflow/internal/render"
)

// printSection writes one settled dashboard section. A required list that
// failed is skipped and reported false; the error is printed by the caller.
func printSection(w io.Writer, sec dashboard.Section, v dashboard.View, loc *time.Location) bool {
	switch sec {
	case dashboard.SectionMetrics:
		printCards(w, render.StatCards(v.Metrics))
		if v.MetricsFallback {
			fmt.Fprintln(w, "(métricas calculadas localmente)")
		}
	case dashboard.SectionClients:
		if v.Error != "" && len(v.Clients) == 0 {
			return false
		}
		printCards(w, render.FlowCards(v.Flow))
		fmt.Fprintln(w)
		printTable(w, render.ClientsTable(v.Clients))
	case dashboard.SectionAppointments:
		if v.Error != "" && len(v.Appointments) == 0 {
			return false
		}
		printList(w, render.AppointmentsList(v.Appointments, loc))
	case dashboard.SectionRevenue:
		printChart(w, render.RevenueChart(v.Revenue, render.ChartOptions{Title: "Faturamento mensal", Height: 20}))
	case dashboard.SectionStatus:
		printDonut(w, render.StatusDonut(v.Status, render.ChartOptions{Title: "Status dos atendimentos"}))
	default:
		return false
	}
	fmt.Fprintln(w)
	return true
}

func printCompany(w io.Writer, c *models.Company) {
	if c == nil {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Empresa:\t%s\n", c.Name)
	fmt.Fprintf(tw, "E-mail:\t%s\n", c.Email)
	if c.Niche != "" {
		fmt.Fprintf(tw, "Nicho:\t%s\n", c.Niche)
	}
	if c.Phone != "" {
		fmt.Fprintf(tw, "Telefone:\t%s\n", c.Phone)
	}
	fmt.Fprintf(tw, "Plano:\t%s\n", c.Plan())
	if c.LogoURL != "" {
		fmt.Fprintf(tw, "Logo:\t%s\n", c.LogoURL)
	}
	_ = tw.Flush()
}

func printCards(w io.Writer, cards []render.Card) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Icon, c.Title, c.Value)
	}
	_ = tw.Flush()
}

func printChart(w io.Writer, ch render.Chart) {
	fmt.Fprintln(w, ch.Title)
	if ch.Empty {
		fmt.Fprintln(w, "  sem dados")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, b := range ch.Bars {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", b.Label, strings.Repeat("█", b.Level), b.Formatted)
	}
	_ = tw.Flush()
}

func printDonut(w io.Writer, d render.Donut) {
	fmt.Fprintln(w, d.Title)
	if d.Empty {
		fmt.Fprintln(w, "  sem dados")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, s := range d.Slices {
		fmt.Fprintf(tw, "  %s\t%d\t%d%%\n", s.Name, s.Value, s.Percent)
	}
	_ = tw.Flush()
}

func printTable(w io.Writer, t render.Table) {
	if len(t.Rows) == 0 {
		fmt.Fprintln(w, t.EmptyMessage)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(t.Columns, "\t")))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

func printList(w io.Writer, items []render.ListItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Nenhum atendimento.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t[%s]\n", it.When, it.Title, it.Subtitle, it.Badge)
	}
	_ = tw.Flush()
}

func printForm(w io.Writer, f render.FormView) {
	fmt.Fprintln(w, f.Title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, in := range f.Inputs {
		extra := ""
		if len(in.Options) > 0 {
			extra = "(" + strings.Join(in.Options, "|") + ")"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", in.Name, in.Label, in.Value, extra)
	}
	_ = tw.Flush()
	if f.Error != "" {
		fmt.Fprintln(w, "Erro:", f.Error)
	}
}
