package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/apiclient"
	"github.com/BruksfildServices01/clientflow/internal/billing"
	"github.com/BruksfildServices01/clientflow/internal/config"
	"github.com/BruksfildServices01/clientflow/internal/dashboard"
	"github.com/BruksfildServices01/clientflow/internal/editor"
	"github.com/BruksfildServices01/clientflow/internal/events"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/logger"
	"github.com/BruksfildServices01/clientflow/internal/session"
	"github.com/BruksfildServices01/clientflow/internal/storage"
	"github.com/BruksfildServices01/clientflow/internal/telemetry"
	"github.com/BruksfildServices01/clientflow/internal/timezone"
	"github.com/BruksfildServices01/clientflow/internal/validators"
)

const reloginHint = "Sessão expirada. Rode `clientflow login` novamente."

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":        {"autentica a empresa", runLogin},
	"logout":       {"encerra a sessão", runLogout},
	"whoami":       {"mostra a empresa logada", runWhoami},
	"dashboard":    {"painel com métricas, faturamento e status", runDashboard},
	"analytics":    {"análises por período (-period today|7d|30d|month)", runAnalytics},
	"clients":      {"lista clientes; clients add campo=valor... | clients rm <id>", runClients},
	"appointments": {"lista atendimentos; appointments add campo=valor... | appointments rm <id>", runAppointments},
	"edit":         {"edita um registro: edit <clientes|atendimentos> <id> campo=valor...", runEdit},
	"company":      {"mostra ou atualiza o perfil da empresa", runCompany},
	"logo":         {"envia o logo: logo <arquivo|s3://bucket/chave>", runLogo},
	"plans":        {"lista os planos", runPlans},
	"checkout":     {"gera o link de pagamento: checkout <tier>", runCheckout},
}

type app struct {
	cfg   *config.Config
	log   *zap.Logger
	out   io.Writer
	loc   *time.Location
	bus   *events.Bus
	store *session.Store
	svc   *session.Service
	api   *apiclient.Client
	agg   *dashboard.Aggregator
	ed    *editor.Editor
	tp    *telemetry.Provider
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	name := os.Args[1]
	if name == "help" || name == "-h" || name == "--help" {
		usage(os.Stdout)
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "comando desconhecido: %s\n\n", name)
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := newApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sub, unsubscribe := a.bus.Subscribe(16)
	err = cmd.run(ctx, a, os.Args[2:])
	unsubscribe()
	expired, notes := drainEvents(sub)
	for _, n := range notes {
		fmt.Fprintln(a.out, n)
	}

	cleanup()

	if err != nil {
		if expired || httperr.IsUnauthorized(err) {
			fmt.Fprintln(os.Stderr, reloginHint)
		} else {
			fmt.Fprintln(os.Stderr, httperr.Message(err, err.Error()))
		}
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "uso: clientflow <comando> [opções]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-13s %s\n", n, commands[n].summary)
	}
}

// drainEvents reads the closed subscription: whether a 401 ended the
// session, and the info notifications to show. Errors are printed by main.
func drainEvents(ch <-chan events.Event) (expired bool, notes []string) {
	for ev := range ch {
		switch {
		case ev.Kind == events.KindLogout && ev.Reason == "unauthorized":
			expired = true
		case ev.Kind == events.KindNotification && ev.Level == events.LevelInfo:
			notes = append(notes, ev.Message)
		}
	}
	return expired, notes
}

func newApp(ctx context.Context) (*app, func(), error) {
	cfg := config.Load()
	// stdout é do usuário; logs só a partir de warn
	log := logger.New(cfg.Env).WithOptions(zap.IncreaseLevel(zap.WarnLevel))

	tp, err := telemetry.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry init: %w", err)
	}

	st, closeStorage, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	bus := events.NewBus(log)
	store := session.NewStore(st, bus, log)
	api := apiclient.NewFromConfig(cfg, store, store, log)
	store.UseRefresher(api.Auth())

	var opts []session.Option
	if cfg.CheckEmailDomain {
		opts = append(opts, session.WithEmailDomainCheck(validators.IsEmailDomainValid))
	}
	svc := session.NewService(store, api.Auth(), log, opts...)

	if _, err := svc.Restore(ctx); err != nil {
		log.Warn("could not restore session", zap.Error(err))
	}

	loc := timezone.Location(cfg.Timezone)
	a := &app{
		cfg:   cfg,
		log:   log,
		out:   os.Stdout,
		loc:   loc,
		bus:   bus,
		store: store,
		svc:   svc,
		api:   api,
		agg: dashboard.NewAggregator(dashboard.NewAPISource(api), log,
			dashboard.WithLocation(loc),
			dashboard.WithTracer(tp.Tracer()),
		),
		ed: editor.New(api.Records(), bus, log),
		tp: tp,
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown", zap.Error(err))
		}
		if err := closeStorage(); err != nil {
			log.Warn("close storage", zap.Error(err))
		}
		_ = log.Sync()
	}
	return a, cleanup, nil
}

func (a *app) requireSession() error {
	if !a.store.Current().Authenticated() {
		return httperr.ErrBusinessMsg("no_session", "Nenhuma sessão ativa. Rode `clientflow login`.")
	}
	return nil
}

func (a *app) catalog() *billing.Catalog {
	return billing.NewCatalog(a.api.Subscriptions(), a.log)
}
