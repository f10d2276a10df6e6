package location

import (
	"context"

	"github.com/piresc/geoquery/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks github.com/piresc/geoquery/services/location LocationGW

// LocationGW defines the interface for location gateway operations
type LocationGW interface {
	// PublishQueryEvent publishes a session transition to NATS
	PublishQueryEvent(ctx context.Context, event models.QueryEvent) error
}
