package reservation

import (
	"context"

	"labreserve/internal/domain"
	"labreserve/internal/notification"
)

// CatalogReader is the read-only lab reference data the workflow consumes.
type CatalogReader interface {
	GetLab(ctx context.Context, id int64) (*domain.Lab, error)
	GetOperatingHours(ctx context.Context, labID int64, dayOfWeek int) (*domain.LabOperatingHours, error)
	ListClosedDays(ctx context.Context, labID int64) ([]domain.LabClosedDay, error)
	GetWorkstation(ctx context.Context, id int64) (*domain.Workstation, error)
	ListManagers(ctx context.Context, labID int64) ([]domain.User, error)
}

// Notifier accepts events fire-and-forget.
type Notifier interface {
	Publish(ev notification.Event)
}
