// Package dashboard assembles the dashboard view from the required client and
// appointment lists and the optional metrics, revenue and status endpoints.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BruksfildServices01/clientflow/internal/models"
	"github.com/BruksfildServices01/clientflow/internal/timezone"
)

type Section string

const (
	SectionClients      Section = "clients"
	SectionAppointments Section = "appointments"
	SectionMetrics      Section = "metrics"
	SectionRevenue      Section = "revenue"
	SectionStatus       Section = "status"
)

// LoadErrorMessage is shown when a required list could not be loaded.
const LoadErrorMessage = "Erro ao carregar dados do painel"

// View is the dashboard state. Each section is written once per load.
type View struct {
	Clients      []models.Client      `json:"clients"`
	Appointments []models.Appointment `json:"appointments"`
	Flow         models.FlowStats     `json:"flow"`

	Metrics         *models.Metrics       `json:"metrics,omitempty"`
	MetricsFallback bool                  `json:"metricsFallback"`
	Revenue         []models.RevenuePoint `json:"revenue,omitempty"`
	Status          []models.StatusSlice  `json:"status,omitempty"`

	Error string `json:"error,omitempty"`
}

func (v View) snapshot() View {
	if v.Metrics != nil {
		m := *v.Metrics
		v.Metrics = &m
	}
	return v
}

// UpdateFunc receives the section that just settled and a copy of the view.
// Calls are serialized.
type UpdateFunc func(Section, View)

type Aggregator struct {
	src    Source
	loc    *time.Location
	now    func() time.Time
	log    *zap.Logger
	tracer trace.Tracer
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) { a.loc = loc }
}

func WithTracer(t trace.Tracer) Option {
	return func(a *Aggregator) { a.tracer = t }
}

func NewAggregator(src Source, log *zap.Logger, opts ...Option) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Aggregator{
		src:    src,
		loc:    timezone.Location(timezone.DefaultTimezone),
		log:    log,
		tracer: otel.Tracer("github.com/BruksfildServices01/clientflow/internal/dashboard"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.now == nil {
		a.now = timezone.Clock(a.loc)
	}
	return a
}

// Load runs all five fetches concurrently. Optional failures are logged and
// skipped; a metrics failure falls back to LocalMetrics once the required
// lists have settled. A required failure leaves that list empty, sets
// View.Error and is returned.
func (a *Aggregator) Load(ctx context.Context, onUpdate UpdateFunc) (*View, error) {
	var (
		mu   sync.Mutex
		view = View{Clients: []models.Client{}, Appointments: []models.Appointment{}}
	)

	apply := func(sec Section, fn func(v *View)) {
		mu.Lock()
		defer mu.Unlock()
		fn(&view)
		if onUpdate != nil {
			onUpdate(sec, view.snapshot())
		}
	}

	var required sync.WaitGroup
	required.Add(2)

	var g errgroup.Group

	g.Go(func() error {
		defer required.Done()
		clients, err := fetch(ctx, a, SectionClients, a.src.Clients)
		apply(SectionClients, func(v *View) {
			if err != nil {
				v.Error = LoadErrorMessage
				return
			}
			v.Clients = clients
			v.Flow = FlowStats(clients)
		})
		return err
	})

	g.Go(func() error {
		defer required.Done()
		appointments, err := fetch(ctx, a, SectionAppointments, a.src.Appointments)
		apply(SectionAppointments, func(v *View) {
			if err != nil {
				v.Error = LoadErrorMessage
				return
			}
			v.Appointments = appointments
		})
		return err
	})

	g.Go(func() error {
		metrics, err := fetch(ctx, a, SectionMetrics, a.src.Metrics)
		if err == nil && metrics != nil {
			apply(SectionMetrics, func(v *View) { v.Metrics = metrics })
			return nil
		}

		required.Wait()
		apply(SectionMetrics, func(v *View) {
			local := LocalMetrics(v.Clients, v.Appointments, a.now(), a.loc)
			v.Metrics = &local
			v.MetricsFallback = true
		})
		return nil
	})

	g.Go(func() error {
		points, err := fetch(ctx, a, SectionRevenue, a.src.Revenue)
		if err == nil {
			apply(SectionRevenue, func(v *View) { v.Revenue = points })
		}
		return nil
	})

	g.Go(func() error {
		slices, err := fetch(ctx, a, SectionStatus, a.src.AppointmentsStatus)
		if err == nil {
			apply(SectionStatus, func(v *View) { v.Status = slices })
		}
		return nil
	})

	err := g.Wait()

	mu.Lock()
	out := view.snapshot()
	mu.Unlock()

	if err != nil {
		return &out, fmt.Errorf("load dashboard: %w", err)
	}
	return &out, nil
}

func fetch[T any](ctx context.Context, a *Aggregator, sec Section, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := a.tracer.Start(ctx, "dashboard.fetch."+string(sec))
	defer span.End()

	start := time.Now()
	res, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		level := a.log.Warn
		if sec == SectionClients || sec == SectionAppointments {
			level = a.log.Error
		}
		level("dashboard fetch failed",
			zap.String("section", string(sec)),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return res, err
	}

	a.log.Debug("dashboard fetch",
		zap.String("section", string(sec)),
		zap.Duration("latency", time.Since(start)),
	)
	return res, nil
}
