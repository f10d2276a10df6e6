package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/piresc/geoquery/internal/pkg/models"
)

// EventRepo implements location.EventRepo on Postgres
type EventRepo struct {
	cfg *models.Config
	db  *sqlx.DB
}

// NewEventRepository creates a new query event repository
func NewEventRepository(cfg *models.Config, db *sqlx.DB) *EventRepo {
	return &EventRepo{
		cfg: cfg,
		db:  db,
	}
}

// StoreEvent appends a session transition and sets its generated ID
func (r *EventRepo) StoreEvent(ctx context.Context, event *models.QueryEvent) error {
	query := `
		INSERT INTO geo_query_events (session_id, key, event, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		event.SessionID,
		event.Key,
		event.Event,
		event.Latitude,
		event.Longitude,
		event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to store query event: %w", err)
	}
	return nil
}

// ListSessionEvents returns up to limit transitions of a session, oldest first
func (r *EventRepo) ListSessionEvents(ctx context.Context, sessionID string, limit int) ([]*models.QueryEvent, error) {
	query := `
		SELECT id, session_id, key, event, latitude, longitude, created_at
		FROM geo_query_events
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`

	events := []*models.QueryEvent{}
	if err := r.db.SelectContext(ctx, &events, query, sessionID, limit); err != nil {
		return nil, fmt.Errorf("failed to list query events: %w", err)
	}
	return events, nil
}
