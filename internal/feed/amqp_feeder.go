package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"go1090/internal/publish"
)

// AMQPFeeder fans aircraft.json snapshots out to a message broker
// exchange, grounded on billglover-go-adsb-console's updater.go
// (fanout exchange declare, transient JSON publishing on a ticker).
type AMQPFeeder struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *logrus.Logger
}

// NewAMQPFeeder dials url and declares a fanout exchange named exchange.
func NewAMQPFeeder(url, exchange string, logger *logrus.Logger) (*AMQPFeeder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "fanout", false, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPFeeder{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

// Publish marshals snap and publishes it to the exchange.
func (f *AMQPFeeder) Publish(snap publish.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	msg := amqp.Publishing{
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		Body:         body,
	}

	return f.ch.Publish(f.exchange, "", false, false, msg)
}

// Run publishes a snapshot (produced by snapshotFn) every interval
// until ctx is cancelled.
func (f *AMQPFeeder) Run(ctx context.Context, interval time.Duration, snapshotFn func() publish.Snapshot) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Publish(snapshotFn()); err != nil {
				f.logger.WithError(err).Warn("failed to publish snapshot to AMQP exchange")
			}
		}
	}
}

// Close shuts down the channel and connection.
func (f *AMQPFeeder) Close() error {
	f.ch.Close()
	return f.conn.Close()
}
