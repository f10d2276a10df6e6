package location

import (
	"context"

	"github.com/piresc/geoquery/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/piresc/geoquery/services/location EventRepo

// EventRepo persists the transitions observed by query sessions
type EventRepo interface {
	StoreEvent(ctx context.Context, event *models.QueryEvent) error
	ListSessionEvents(ctx context.Context, sessionID string, limit int) ([]*models.QueryEvent, error)
}
