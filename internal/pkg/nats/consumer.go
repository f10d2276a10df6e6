package nats

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/piresc/geoquery/internal/pkg/logger"
)

// MessageHandler is a function that processes NATS messages
type MessageHandler func(subject string, data []byte) error

// Consumer handles consuming messages from a NATS subject, optionally as a
// member of a queue group so that each message is processed once.
type Consumer struct {
	subscription *nats.Subscription
	subject      string
}

// NewConsumer subscribes handler to subject on the client's connection
func NewConsumer(client *Client, subject, queueGroup string, handler MessageHandler) (*Consumer, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}

	cb := func(msg *nats.Msg) {
		if err := handler(msg.Subject, msg.Data); err != nil {
			logger.Warn("Error processing message",
				logger.String("subject", msg.Subject),
				logger.String("queue_group", queueGroup),
				logger.Err(err))
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if queueGroup != "" {
		sub, err = client.conn.QueueSubscribe(subject, queueGroup, cb)
	} else {
		sub, err = client.conn.Subscribe(subject, cb)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to topic: %w", err)
	}

	logger.Info("NATS consumer started",
		logger.String("subject", subject),
		logger.String("queue_group", queueGroup))

	return &Consumer{subscription: sub, subject: subject}, nil
}

// Stop drains the subscription
func (c *Consumer) Stop() {
	if c.subscription == nil {
		return
	}
	if err := c.subscription.Drain(); err != nil {
		logger.Warn("Failed to drain NATS subscription",
			logger.String("subject", c.subject),
			logger.Err(err))
	}
}
