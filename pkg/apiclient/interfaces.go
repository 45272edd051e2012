package apiclient

import (
	"context"

	"github.com/mfreeman451/iotdash/pkg/models"
)

//go:generate mockgen -destination=mock_client.go -package=apiclient github.com/mfreeman451/iotdash/pkg/apiclient Client

// Client reads the upstream device API.
type Client interface {
	// ListDevices calls GET /api/devices.
	ListDevices(ctx context.Context) ([]models.DeviceSummary, error)
	// GetDevice calls GET /api/devices/{id}.
	GetDevice(ctx context.Context, id string) (*models.DeviceDetail, error)
	// GetAnalytics calls GET /api/analytics.
	GetAnalytics(ctx context.Context) (models.Analytics, error)
	// GetHealth calls GET /api/monitor.
	GetHealth(ctx context.Context) (models.HealthMap, error)
	// Ping calls GET /health once, without retries.
	Ping(ctx context.Context) error
}
