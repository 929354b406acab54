package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/apiclient"
	"github.com/BruksfildServices01/clientflow/internal/billing"
	"github.com/BruksfildServices01/clientflow/internal/dashboard"
	"github.com/BruksfildServices01/clientflow/internal/editor"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/logo"
	"github.com/BruksfildServices01/clientflow/internal/models"
	"github.com/BruksfildServices01/clientflow/internal/render"
	"github.com/BruksfildServices01/clientflow/internal/session"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// --------- Sessão ---------

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "e-mail de login")
	password := fs.String("password", os.Getenv("CLIENTFLOW_PASSWORD"), "senha (ou CLIENTFLOW_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		fmt.Fprint(os.Stderr, "Senha: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	company, err := a.svc.Login(ctx, session.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Bem-vindo, %s!\n", company.Name)
	seen, err := a.store.OnboardingSeen(ctx)
	if err == nil && !seen {
		fmt.Fprintln(a.out, "Primeira vez por aqui? Comece por `clientflow dashboard` e `clientflow clients`.")
		_ = a.store.MarkOnboardingSeen(ctx)
	}
	return nil
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.svc.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Sessão encerrada.")
	return nil
}

func runWhoami(_ context.Context, a *app, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	printCompany(a.out, a.store.CurrentCompany())
	return nil
}

// --------- Painel ---------

// runDashboard prints each section as soon as it settles. Optional sections
// that never arrive are printed empty at the end.
func runDashboard(ctx context.Context, a *app, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	printed := map[dashboard.Section]bool{}
	view, err := a.agg.Load(ctx, func(sec dashboard.Section, v dashboard.View) {
		if printSection(a.out, sec, v, a.loc) {
			printed[sec] = true
		}
	})
	for _, sec := range []dashboard.Section{dashboard.SectionRevenue, dashboard.SectionStatus} {
		if !printed[sec] {
			printSection(a.out, sec, *view, a.loc)
		}
	}
	if err != nil {
		if httperr.IsUnauthorized(err) {
			return err
		}
		fmt.Fprintln(os.Stderr, view.Error)
	}
	return nil
}

func runAnalytics(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("analytics")
	period := fs.String("period", "30d", "today, 7d, 30d ou month")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !slices.Contains(apiclient.AnalyticsPeriods, *period) {
		return httperr.ErrBusinessMsg("invalid_period", "Período inválido. Use today, 7d, 30d ou month.")
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	out, err := a.api.Dashboard().Analytics(ctx, *period)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// --------- Listas ---------

func runClients(ctx context.Context, a *app, args []string) error {
	if len(args) > 0 {
		return manageRecord(ctx, a, apiclient.KindClient, args)
	}
	if err := a.requireSession(); err != nil {
		return err
	}
	clients, err := dashboard.NewAPISource(a.api).Clients(ctx)
	if err != nil {
		return err
	}
	printTable(a.out, render.ClientsTable(clients))
	return nil
}

func runAppointments(ctx context.Context, a *app, args []string) error {
	if len(args) > 0 {
		return manageRecord(ctx, a, apiclient.KindAppointment, args)
	}
	if err := a.requireSession(); err != nil {
		return err
	}
	apts, err := dashboard.NewAPISource(a.api).Appointments(ctx)
	if err != nil {
		return err
	}
	printList(a.out, render.AppointmentsList(apts, a.loc))
	return nil
}

// manageRecord handles `add campo=valor...` and `rm <id>` for a kind and
// reprints the list afterwards.
func manageRecord(ctx context.Context, a *app, kind string, args []string) error {
	list := runClients
	if kind == apiclient.KindAppointment {
		list = runAppointments
	}

	switch args[0] {
	case "add":
		values, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		body, err := editor.NewRecord(kind, values, editor.DefaultSchemas)
		if err != nil {
			return err
		}
		if err := a.requireSession(); err != nil {
			return err
		}
		id, err := createRecord(ctx, a, kind, body)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Registro #%d criado.\n", id)
	case "rm":
		if len(args) != 2 {
			return httperr.ErrBusinessMsg("usage", fmt.Sprintf("uso: clientflow %s rm <id>", commandFor(kind)))
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || id <= 0 {
			return httperr.ErrBusinessMsg("invalid_id", "ID inválido.")
		}
		if err := a.requireSession(); err != nil {
			return err
		}
		if kind == apiclient.KindClient {
			err = a.api.Clients().Delete(ctx, id)
		} else {
			err = a.api.Appointments().Delete(ctx, id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Registro #%d removido.\n", id)
	default:
		return httperr.ErrBusinessMsg("usage", fmt.Sprintf("uso: clientflow %s [add campo=valor...|rm <id>]", commandFor(kind)))
	}
	return list(ctx, a, nil)
}

func createRecord(ctx context.Context, a *app, kind string, body map[string]any) (int64, error) {
	if kind == apiclient.KindClient {
		c, err := a.api.Clients().Create(ctx, body)
		if err != nil {
			return 0, err
		}
		return c.ID, nil
	}
	apt, err := a.api.Appointments().Create(ctx, body)
	if err != nil {
		return 0, err
	}
	return apt.ID, nil
}

func commandFor(kind string) string {
	if kind == apiclient.KindAppointment {
		return "appointments"
	}
	return "clients"
}

// --------- Editor ---------

func runEdit(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return httperr.ErrBusinessMsg("usage", "uso: clientflow edit <clientes|atendimentos> <id> campo=valor...")
	}
	kind := args[0]
	if kind != apiclient.KindClient && kind != apiclient.KindAppointment {
		return httperr.ErrBusinessMsg("unknown_kind", "Tipo de registro desconhecido.")
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return httperr.ErrBusinessMsg("invalid_id", "ID inválido.")
	}
	values, err := parseAssignments(args[2:])
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	form, err := a.ed.Open(ctx, kind, id)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		printForm(a.out, render.EditorForm(form))
		return a.ed.Close()
	}

	// depois de salvar, a lista do tipo é recarregada e mostrada
	a.ed.OnSaved(kind, func(ctx context.Context, kind string) {
		var err error
		if kind == apiclient.KindClient {
			err = runClients(ctx, a, nil)
		} else {
			err = runAppointments(ctx, a, nil)
		}
		if err != nil {
			a.log.Warn("list refresh failed", zap.String("kind", kind), zap.Error(err))
		}
	})

	form, err = a.ed.Submit(ctx, kind, id, values)
	if err != nil {
		printForm(a.out, render.EditorForm(form))
		return err
	}
	return nil
}

// parseAssignments turns campo=valor pairs into editor values. An empty
// value is kept so the field can be cleared.
func parseAssignments(args []string) (map[string]any, error) {
	values := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, httperr.ErrBusinessMsg("invalid_assignment", fmt.Sprintf("Use campo=valor, recebido %q", arg))
		}
		values[k] = v
	}
	return values, nil
}

// --------- Empresa ---------

func runCompany(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("company")
	name := fs.String("name", "", "novo nome da empresa")
	niche := fs.String("niche", "", "novo nicho")
	phone := fs.String("phone", "", "novo telefone")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	var upd models.CompanyUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			upd.Name = name
		case "niche":
			upd.Niche = niche
		case "phone":
			upd.Phone = phone
		}
	})

	var (
		company *models.Company
		err     error
	)
	if upd.Name == nil && upd.Niche == nil && upd.Phone == nil {
		company, err = a.api.Company().Me(ctx)
	} else {
		company, err = a.api.Company().Update(ctx, upd)
	}
	if err != nil {
		return err
	}
	if err := a.store.UpdateCompany(ctx, company); err != nil {
		a.log.Warn("failed to cache company", zap.Error(err))
	}
	printCompany(a.out, company)
	return nil
}

func runLogo(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return httperr.ErrBusinessMsg("usage", "uso: clientflow logo <arquivo|s3://bucket/chave>")
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	src, err := logo.ParseSource(args[0], func() logo.S3API { return logo.NewS3Client(a.cfg) })
	if err != nil {
		return err
	}
	uploader := logo.NewUploader(a.api.Company(), a.store, a.cfg.LogoMaxSide, a.log)
	logoURL, err := uploader.Upload(ctx, src)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logo atualizado: %s\n", logoURL)
	return nil
}

// --------- Planos ---------

func runPlans(ctx context.Context, a *app, _ []string) error {
	plans, offline := a.catalog().Plans(ctx)
	current := a.store.CurrentCompany().Plan()

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tPLANO\tPREÇO/MÊS\tRECURSOS")
	for _, p := range plans {
		marker := ""
		if p.Tier == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, p.Name, render.Currency(p.PriceMonthly), strings.Join(enabledFeatures(p), ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if offline {
		fmt.Fprintln(a.out, "(catálogo offline)")
	}
	return nil
}

func enabledFeatures(p models.Plan) []string {
	var out []string
	for name, on := range p.Features {
		if on {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

func runCheckout(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return httperr.ErrBusinessMsg("usage", "uso: clientflow checkout <tier>")
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	prefs, err := billing.NewPreferenceClient(a.cfg.MercadoPagoToken)
	if err != nil {
		return err
	}
	checkout := billing.NewCheckout(a.catalog(), prefs, a.cfg.CheckoutBackURL, a.log)
	link, err := checkout.Link(ctx, a.store.CurrentCompany(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Finalize o pagamento em: %s\n", link)
	return nil
}
