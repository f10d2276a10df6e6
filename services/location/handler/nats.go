package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/piresc/geoquery/internal/pkg/constants"
	"github.com/piresc/geoquery/internal/pkg/geo"
	"github.com/piresc/geoquery/internal/pkg/logger"
	"github.com/piresc/geoquery/internal/pkg/models"
	natspkg "github.com/piresc/geoquery/internal/pkg/nats"
	"github.com/piresc/geoquery/internal/pkg/retry"
	"github.com/piresc/geoquery/services/location"
)

// QueueGroupEventLog makes every instance share the event log consumer so
// each transition is stored once
const QueueGroupEventLog = "geoquery-event-log"

const recordTimeout = 10 * time.Second

// EventLogHandler stores the query transitions published on NATS
type EventLogHandler struct {
	locationUC location.LocationUC
	natsClient *natspkg.Client
	consumers  []*natspkg.Consumer
	retrier    *retry.Retrier
}

// NewEventLogHandler creates a new event log NATS handler
func NewEventLogHandler(locationUC location.LocationUC, client *natspkg.Client) *EventLogHandler {
	return &EventLogHandler{
		locationUC: locationUC,
		natsClient: client,
		consumers:  make([]*natspkg.Consumer, 0),
		retrier:    newRecordRetrier(retry.DefaultConfig()),
	}
}

// newRecordRetrier retries transient store failures. Invalid events are
// never retried.
func newRecordRetrier(cfg retry.Config) *retry.Retrier {
	cfg.Retryable = func(err error) bool {
		return !errors.Is(err, geo.ErrInvalidArgument)
	}
	return retry.New(cfg)
}

// InitNATSConsumers subscribes to every session event subject
func (h *EventLogHandler) InitNATSConsumers() error {
	consumer, err := natspkg.NewConsumer(h.natsClient, constants.SubjectQueryEventAll, QueueGroupEventLog, h.handleQueryEvent)
	if err != nil {
		return fmt.Errorf("failed to create query event consumer: %w", err)
	}
	h.consumers = append(h.consumers, consumer)
	return nil
}

// Stop drains every consumer
func (h *EventLogHandler) Stop() {
	for _, consumer := range h.consumers {
		consumer.Stop()
	}
	h.consumers = nil
}

func (h *EventLogHandler) handleQueryEvent(subject string, data []byte) error {
	var event models.QueryEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to unmarshal query event: %w", err)
	}
	if event.SessionID == "" || event.Event == "" {
		return fmt.Errorf("query event on %s is missing session or event", subject)
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	err := h.retrier.Execute(ctx, func(ctx context.Context) error {
		return h.locationUC.RecordQueryEvent(ctx, event)
	})
	if err != nil {
		logger.Error("Failed to record query event",
			logger.String("session_id", event.SessionID),
			logger.String("event", event.Event),
			logger.Err(err))
		return err
	}
	return nil
}
