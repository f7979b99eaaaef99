// Package notify publishes build reports to NATS so other services can react to builds.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	"git.home.luguber.info/inful/assetpipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

const publishTimeout = 5 * time.Second

// Sender delivers one encoded message to a subject.
type Sender interface {
	Send(ctx context.Context, subject string, data []byte) error
	Close()
}

// Publisher encodes reports and hands them to a Sender.
type Publisher struct {
	sender  Sender
	subject string
}

// NewPublisher wraps an existing sender.
func NewPublisher(sender Sender, subject string) *Publisher {
	return &Publisher{sender: sender, subject: subject}
}

// Connect dials the configured NATS server. With a stream configured, messages go through
// JetStream; otherwise they use core NATS publish.
func Connect(cfg config.NotifyConfig) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, foundationerrors.ConfigError("report publishing is not configured").Build()
	}

	conn, err := nats.Connect(cfg.NATSURL, nats.Name("assetpipe"), nats.Timeout(publishTimeout))
	if err != nil {
		return nil, foundationerrors.NotifyError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", cfg.NATSURL).
			Build()
	}

	var sender Sender = &coreSender{conn: conn}
	if cfg.Stream != "" {
		js, jsErr := jetstream.New(conn)
		if jsErr != nil {
			conn.Close()
			return nil, foundationerrors.NotifyError("failed to create JetStream context").WithCause(jsErr).Build()
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if _, sErr := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:        cfg.Stream,
			Description: "assetpipe build reports",
			Subjects:    []string{cfg.Subject},
			MaxMsgs:     1000,
		}); sErr != nil {
			conn.Close()
			return nil, foundationerrors.NotifyError("failed to ensure report stream").
				WithCause(sErr).
				WithContext("stream", cfg.Stream).
				Build()
		}
		sender = &streamSender{conn: conn, js: js}
	}

	slog.Info("NATS report publishing enabled",
		slog.String("url", cfg.NATSURL),
		slog.String("subject", cfg.Subject),
		slog.String("stream", cfg.Stream))

	return NewPublisher(sender, cfg.Subject), nil
}

// Publish sends the report. Failures are classified warnings; a build never fails because
// its report could not be delivered.
func (p *Publisher) Publish(ctx context.Context, report *build.BuildReport) error {
	data, err := Encode(report)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.sender.Send(ctx, p.subject, data); err != nil {
		return foundationerrors.NotifyError("failed to publish build report").
			WithCause(err).
			WithContext("subject", p.subject).
			WithContext("build_id", report.ID).
			Build()
	}

	slog.Debug("Published build report",
		logfields.BuildID(report.ID),
		slog.String("subject", p.subject))
	return nil
}

// Close releases the connection.
func (p *Publisher) Close() {
	if p.sender != nil {
		p.sender.Close()
	}
}

type coreSender struct {
	conn *nats.Conn
}

func (s *coreSender) Send(ctx context.Context, subject string, data []byte) error {
	if err := s.conn.Publish(subject, data); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return s.conn.Flush()
	}
	return s.conn.FlushTimeout(time.Until(deadline))
}

func (s *coreSender) Close() { s.conn.Close() }

type streamSender struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

func (s *streamSender) Send(ctx context.Context, subject string, data []byte) error {
	if _, err := s.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("jetstream publish: %w", err)
	}
	return nil
}

func (s *streamSender) Close() { s.conn.Close() }
