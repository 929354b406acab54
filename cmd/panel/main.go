package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/apiclient"
	"github.com/BruksfildServices01/clientflow/internal/billing"
	"github.com/BruksfildServices01/clientflow/internal/config"
	"github.com/BruksfildServices01/clientflow/internal/dashboard"
	"github.com/BruksfildServices01/clientflow/internal/editor"
	"github.com/BruksfildServices01/clientflow/internal/events"
	"github.com/BruksfildServices01/clientflow/internal/handlers"
	"github.com/BruksfildServices01/clientflow/internal/logger"
	"github.com/BruksfildServices01/clientflow/internal/logo"
	"github.com/BruksfildServices01/clientflow/internal/routes"
	"github.com/BruksfildServices01/clientflow/internal/server"
	"github.com/BruksfildServices01/clientflow/internal/session"
	"github.com/BruksfildServices01/clientflow/internal/storage"
	"github.com/BruksfildServices01/clientflow/internal/telemetry"
	"github.com/BruksfildServices01/clientflow/internal/timezone"
	"github.com/BruksfildServices01/clientflow/internal/validators"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newLocation,
			newStorage,
			events.NewBus,
			session.NewStore,
			newAPIClient,
			newSessionService,
			newAggregator,
			newDashboardCache,
			newEditor,
			newUploader,
			newCatalog,
			newCheckout,
			handlers.NewSessionHandler,
			handlers.NewDashboardHandler,
			handlers.NewEditorHandler,
			handlers.NewCompanyHandler,
			handlers.NewPlansHandler,
			newHandlers,
			routes.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(restoreSession, logEvents, startHTTPServer),
	)

	app.Run()
}

// Panel defaults to header+query auth; CLIENTFLOW_AUTH_MODE overrides.
func newConfig() *config.Config {
	cfg := config.Load()
	if _, ok := os.LookupEnv("CLIENTFLOW_AUTH_MODE"); !ok {
		cfg.AuthMode = config.AuthModeBoth
	}
	return cfg
}

func newLogger(cfg *config.Config) *zap.Logger {
	log := logger.New(cfg.Env)
	zap.ReplaceGlobals(log)
	return log
}

func newTelemetry(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, log)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})
	return provider, nil
}

func newLocation(cfg *config.Config, log *zap.Logger) *time.Location {
	if !timezone.IsValid(cfg.Timezone) {
		log.Warn("unknown timezone, using default", zap.String("timezone", cfg.Timezone))
	}
	return timezone.Location(cfg.Timezone)
}

func newStorage(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (storage.Storage, error) {
	st, closeFn, err := storage.Open(context.Background(), cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return closeFn() },
	})
	return st, nil
}

// The store is both the token source and the 401 handler of the client, and
// renews expired tokens through it.
func newAPIClient(cfg *config.Config, store *session.Store, log *zap.Logger) *apiclient.Client {
	api := apiclient.NewFromConfig(cfg, store, store, log)
	store.UseRefresher(api.Auth())
	return api
}

func newSessionService(cfg *config.Config, store *session.Store, api *apiclient.Client, log *zap.Logger) *session.Service {
	var opts []session.Option
	if cfg.CheckEmailDomain {
		opts = append(opts, session.WithEmailDomainCheck(validators.IsEmailDomainValid))
	}
	return session.NewService(store, api.Auth(), log, opts...)
}

func newAggregator(api *apiclient.Client, loc *time.Location, tp *telemetry.Provider, log *zap.Logger) *dashboard.Aggregator {
	return dashboard.NewAggregator(dashboard.NewAPISource(api), log,
		dashboard.WithLocation(loc),
		dashboard.WithTracer(tp.Tracer()),
	)
}

func newDashboardCache(cfg *config.Config, agg *dashboard.Aggregator) *dashboard.Cache {
	return dashboard.NewCache(agg, cfg.DashboardCacheTTL)
}

// A saved record makes the cached dashboard stale; the next GET reloads it.
func newEditor(api *apiclient.Client, bus *events.Bus, cache *dashboard.Cache, log *zap.Logger) *editor.Editor {
	ed := editor.New(api.Records(), bus, log)
	refresh := func(_ context.Context, kind string) {
		cache.Invalidate()
		log.Debug("dashboard invalidated", zap.String("kind", kind))
	}
	ed.OnSaved(apiclient.KindClient, refresh)
	ed.OnSaved(apiclient.KindAppointment, refresh)
	return ed
}

func newUploader(cfg *config.Config, api *apiclient.Client, store *session.Store, log *zap.Logger) *logo.Uploader {
	return logo.NewUploader(api.Company(), store, cfg.LogoMaxSide, log)
}

func newCatalog(api *apiclient.Client, log *zap.Logger) *billing.Catalog {
	return billing.NewCatalog(api.Subscriptions(), log)
}

func newCheckout(cfg *config.Config, catalog *billing.Catalog, log *zap.Logger) (*billing.Checkout, error) {
	prefs, err := billing.NewPreferenceClient(cfg.MercadoPagoToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: %w", err)
	}
	if prefs == nil {
		log.Info("MP_ACCESS_TOKEN not set, checkout disabled")
	}
	return billing.NewCheckout(catalog, prefs, cfg.CheckoutBackURL, log), nil
}

func newHandlers(
	s *handlers.SessionHandler,
	d *handlers.DashboardHandler,
	e *handlers.EditorHandler,
	c *handlers.CompanyHandler,
	p *handlers.PlansHandler,
) routes.Handlers {
	return routes.Handlers{Session: s, Dashboard: d, Editor: e, Company: c, Plans: p}
}

func restoreSession(lc fx.Lifecycle, svc *session.Service, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sess, err := svc.Restore(ctx)
			if err != nil {
				log.Warn("could not restore session", zap.Error(err))
				return nil
			}
			if sess.Authenticated() {
				log.Info("session restored", zap.Int64("company_id", sess.Company.ID))
			}
			return nil
		},
	})
}

func logEvents(lc fx.Lifecycle, bus *events.Bus, log *zap.Logger) {
	var unsubscribe func()

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ch, unsub := bus.Subscribe(16)
			unsubscribe = unsub
			go func() {
				for ev := range ch {
					switch ev.Kind {
					case events.KindLogout:
						log.Warn("session ended", zap.String("reason", ev.Reason))
					case events.KindRecordSaved:
						log.Info("record saved", zap.String("kind", ev.RecordKind), zap.Int64("id", ev.RecordID))
					default:
						log.Debug("notification", zap.String("level", string(ev.Level)), zap.String("message", ev.Message))
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			if unsubscribe != nil {
				unsubscribe()
			}
			return nil
		},
	})
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg *config.Config, log *zap.Logger) {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, cfg.Addr()); err != nil {
					log.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
