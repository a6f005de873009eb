package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// conn is the subset of *nats.Conn used for publishing.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSNotifier publishes events as JSON on core NATS. Events are sent to
// "<subject>.<kind>.<type>", or "<subject>.site.<type>" for site-wide events.
type NATSNotifier struct {
	conn    conn
	subject string
	logger  *slog.Logger
	now     func() time.Time
}

// NewNATS connects to url. The connection reconnects in the background.
func NewNATS(url, subject string, logger *slog.Logger) (*NATSNotifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("sitekeeper"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	logger.Info("NATS notifier connected", "url", url, "subject", subject)
	return newNATSNotifier(nc, subject, logger), nil
}

func newNATSNotifier(c conn, subject string, logger *slog.Logger) *NATSNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSNotifier{conn: c, subject: subject, logger: logger, now: time.Now}
}

// Subject returns the NATS subject an event is sent to.
func (n *NATSNotifier) Subject(e Event) string {
	scope := e.Kind
	if scope == "" {
		scope = "site"
	}
	return strings.Join([]string{n.subject, scope, e.Type}, ".")
}

// Notify publishes e and flushes so delivery failures surface to the caller.
func (n *NATSNotifier) Notify(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = n.now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return errors.InternalError("failed to marshal notification").WithCause(err).Build()
	}
	subject := n.Subject(e)
	if err := n.conn.Publish(subject, data); err != nil {
		return errors.NetworkError("failed to publish notification").
			WithCause(err).
			WithContext("subject", subject).
			Build()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return errors.NetworkError("failed to flush notification").
			WithCause(err).
			WithContext("subject", subject).
			Build()
	}
	n.logger.Debug("Published notification", "subject", subject)
	return nil
}

// Close drains nothing and closes the connection.
func (n *NATSNotifier) Close() error {
	n.conn.Close()
	return nil
}
