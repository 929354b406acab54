package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/BruksfildServices01/clientflow/internal/models"
)

// Resource is a REST collection under path (/clientes, /atendimentos).
type Resource[T any] struct {
	c    *Client
	path string
}

func (r *Resource[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s/%d", r.path, id)
}

func (r *Resource[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	var items []T
	if err := r.c.Get(ctx, r.path, query, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	var item T
	if err := r.c.Get(ctx, r.itemPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Resource[T]) Create(ctx context.Context, body any) (*T, error) {
	var item T
	if err := r.c.Post(ctx, r.path, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.c.Delete(ctx, r.itemPath(id))
}

func (c *Client) Clients() *Resource[models.Client] {
	return &Resource[models.Client]{c: c, path: "/clientes"}
}

func (c *Client) Appointments() *Resource[models.Appointment] {
	return &Resource[models.Appointment]{c: c, path: "/atendimentos"}
}

// Record kinds understood by Records.
const (
	KindClient      = "clientes"
	KindAppointment = "atendimentos"
)

// RecordService reads and writes records as raw JSON objects. The generic
// editor works on these.
type RecordService struct {
	c *Client
}

func (c *Client) Records() *RecordService { return &RecordService{c: c} }

func (s *RecordService) Get(ctx context.Context, kind string, id int64) (map[string]any, error) {
	var rec map[string]any
	if err := s.c.Get(ctx, fmt.Sprintf("/%s/%d", kind, id), nil, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%s %d: empty record", kind, id)
	}
	return rec, nil
}

func (s *RecordService) Put(ctx context.Context, kind string, id int64, fields map[string]any) error {
	return s.c.Put(ctx, fmt.Sprintf("/%s/%d", kind, id), fields, nil)
}

type CompanyService struct {
	c *Client
}

func (c *Client) Company() *CompanyService { return &CompanyService{c: c} }

func (s *CompanyService) Me(ctx context.Context) (*models.Company, error) {
	var company models.Company
	if err := s.c.Get(ctx, "/empresas/me", nil, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

func (s *CompanyService) Update(ctx context.Context, upd models.CompanyUpdate) (*models.Company, error) {
	var company models.Company
	if err := s.c.Put(ctx, "/empresas/me", upd, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// UploadLogo sends the image as multipart field "file" and returns the new
// logo URL.
func (s *CompanyService) UploadLogo(ctx context.Context, filename string, r io.Reader) (string, error) {
	var out struct {
		LogoURL string `json:"logo_url"`
	}
	if err := s.c.Upload(ctx, "/empresas/logo", "file", filename, r, &out); err != nil {
		return "", err
	}
	return out.LogoURL, nil
}

type DashboardService struct {
	c *Client
}

func (c *Client) Dashboard() *DashboardService { return &DashboardService{c: c} }

func (s *DashboardService) Metrics(ctx context.Context) (*models.Metrics, error) {
	var m models.Metrics
	if err := s.c.Get(ctx, "/dashboard/metrics", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *DashboardService) Revenue(ctx context.Context) ([]models.RevenuePoint, error) {
	var points []models.RevenuePoint
	err := s.c.Get(ctx, "/dashboard/revenue", nil, &points)
	return points, err
}

func (s *DashboardService) AppointmentsStatus(ctx context.Context) ([]models.StatusSlice, error) {
	var slices []models.StatusSlice
	err := s.c.Get(ctx, "/dashboard/appointments-status", nil, &slices)
	return slices, err
}

// Analytics periods accepted by the API.
var AnalyticsPeriods = []string{"today", "7d", "30d", "month"}

func (s *DashboardService) Analytics(ctx context.Context, period string) (map[string]any, error) {
	var out map[string]any
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	err := s.c.Get(ctx, "/dashboard/analytics", q, &out)
	return out, err
}

type SubscriptionService struct {
	c *Client
}

func (c *Client) Subscriptions() *SubscriptionService { return &SubscriptionService{c: c} }

func (s *SubscriptionService) Plans(ctx context.Context) ([]models.Plan, error) {
	var out struct {
		Plans []models.Plan `json:"plans"`
	}
	if err := s.c.Get(ctx, "/subscriptions/plans", nil, &out); err != nil {
		return nil, err
	}
	return out.Plans, nil
}
