package control

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSTransport republishes operator commands received on a NATS
// subject into a local Channel. Disabled by default (§5.8) — only
// constructed when an operator configures a broker URL.
type NATSTransport struct {
	conn *nats.Conn
	sub  *nats.Subscription
}

// NewNATSTransport connects to url and subscribes subject, forwarding
// every parseable message to channel.
func NewNATSTransport(url, subject string, channel *Channel, logger *logrus.Logger) (*NATSTransport, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		cmd, err := ParseCommand(string(msg.Data))
		if err != nil {
			logger.WithError(err).Warn("discarding malformed control command")
			return
		}
		if !channel.Send(cmd) {
			logger.Warn("control command channel full, dropping command")
		}
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	return &NATSTransport{conn: conn, sub: sub}, nil
}

// Close unsubscribes and closes the underlying connection.
func (t *NATSTransport) Close() error {
	if err := t.sub.Unsubscribe(); err != nil {
		t.conn.Close()
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	t.conn.Close()
	return nil
}
