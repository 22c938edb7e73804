package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes stage events as JSON on a NATS subject.
type NATSPublisher struct {
	pub     publisher
	conn    *nats.Conn
	subject string
}

// ConnectNATS dials url and returns a publisher for subject.
func ConnectNATS(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("assetbuilder"))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", url).Build()
	}
	slog.Info("NATS publisher connected", logfields.URL(url), slog.String("subject", subject))
	return &NATSPublisher{pub: conn, conn: conn, subject: subject}, nil
}

// StageCompleted publishes ev. Publish failures are logged, never returned; a
// missing subscriber must not fail a build.
func (p *NATSPublisher) StageCompleted(_ context.Context, ev StageEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("Failed to encode stage event", logfields.Stage(ev.Stage), logfields.Error(err))
		return
	}
	if err := p.pub.Publish(p.subject, data); err != nil {
		slog.Warn("Failed to publish stage event", logfields.Stage(ev.Stage), logfields.Error(err))
		return
	}
	slog.Debug("Published stage event", logfields.Stage(ev.Stage), slog.String("subject", p.subject))
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
