package gateway

import (
	"context"
	"fmt"

	"github.com/piresc/geoquery/internal/pkg/circuitbreaker"
	"github.com/piresc/geoquery/internal/pkg/constants"
	"github.com/piresc/geoquery/internal/pkg/metrics"
	"github.com/piresc/geoquery/internal/pkg/models"
	natspkg "github.com/piresc/geoquery/internal/pkg/nats"
	"github.com/piresc/geoquery/services/location"
)

type locationGW struct {
	nc      *natspkg.Client
	breaker *circuitbreaker.Breaker
}

// NewLocationGW creates a new location gateway
func NewLocationGW(nc *natspkg.Client) location.LocationGW {
	cfg := circuitbreaker.DefaultConfig("nats-query-events")
	cfg.OnStateChange = func(name string, _, to circuitbreaker.State) {
		metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
	}
	return &locationGW{
		nc:      nc,
		breaker: circuitbreaker.New(cfg),
	}
}

// PublishQueryEvent publishes a session transition on
// geo.query.{session_id}.{event}. While NATS keeps failing, publishes are
// rejected without touching the connection.
func (g *locationGW) PublishQueryEvent(ctx context.Context, event models.QueryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject := fmt.Sprintf(constants.SubjectQueryEvent, event.SessionID, event.Event)
	err := g.breaker.Execute(ctx, func(context.Context) error {
		return g.nc.PublishJSON(subject, event)
	})
	if err != nil {
		return fmt.Errorf("failed to publish query event: %w", err)
	}
	return nil
}
