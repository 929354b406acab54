package dashboard

import (
	"context"

	"github.com/BruksfildServices01/clientflow/internal/apiclient"
	"github.com/BruksfildServices01/clientflow/internal/models"
)

// Source is what the aggregator reads from.
type Source interface {
	Clients(ctx context.Context) ([]models.Client, error)
	Appointments(ctx context.Context) ([]models.Appointment, error)
	Metrics(ctx context.Context) (*models.Metrics, error)
	Revenue(ctx context.Context) ([]models.RevenuePoint, error)
	AppointmentsStatus(ctx context.Context) ([]models.StatusSlice, error)
}

type APISource struct {
	api *apiclient.Client
}

var _ Source = (*APISource)(nil)

func NewAPISource(api *apiclient.Client) *APISource {
	return &APISource{api: api}
}

func (s *APISource) Clients(ctx context.Context) ([]models.Client, error) {
	return s.api.Clients().List(ctx, nil)
}

func (s *APISource) Appointments(ctx context.Context) ([]models.Appointment, error) {
	return s.api.Appointments().List(ctx, nil)
}

func (s *APISource) Metrics(ctx context.Context) (*models.Metrics, error) {
	return s.api.Dashboard().Metrics(ctx)
}

func (s *APISource) Revenue(ctx context.Context) ([]models.RevenuePoint, error) {
	return s.api.Dashboard().Revenue(ctx)
}

func (s *APISource) AppointmentsStatus(ctx context.Context) ([]models.StatusSlice, error) {
	return s.api.Dashboard().AppointmentsStatus(ctx)
}
