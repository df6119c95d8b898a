package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamName is the JetStream stream that retains interview notifications.
const StreamName = "INTERVIEWS"

var streamSubjects = []string{"interviews.>"}

const (
	publishTimeout = 5 * time.Second
	maxRetries     = 3
)

type sendFunc func(ctx context.Context, subject string, data []byte) error

// Publisher sends interview notifications to NATS. Messages go through
// JetStream when the stream is available and through core NATS otherwise.
type Publisher struct {
	nc         *nats.Conn
	js         jetstream.JetStream
	send       sendFunc
	newBackOff func() backoff.BackOff
}

func New(ctx context.Context, natsURL string) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("interviews"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	p := &Publisher{nc: nc, js: js, newBackOff: defaultBackOff}
	if err := p.ensureStream(ctx); err != nil {
		slog.Warn("stream not available, publishing without persistence", "stream", StreamName, "error", err)
		p.send = p.sendCore
	} else {
		p.send = p.sendJetStream
	}
	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	if _, err := p.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  streamSubjects,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", StreamName, err)
	}

	slog.Info("created stream", "name", StreamName, "subjects", streamSubjects)
	return nil
}

func (p *Publisher) sendJetStream(ctx context.Context, subject string, data []byte) error {
	_, err := p.js.Publish(ctx, subject, data)
	return err
}

func (p *Publisher) sendCore(_ context.Context, subject string, data []byte) error {
	return p.nc.Publish(subject, data)
}

// Publish sends data to subject, retrying transient failures with
// exponential backoff. It matches webhook.PublishFunc.
func (p *Publisher) Publish(subject string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	b := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), maxRetries), ctx)
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if err := p.send(ctx, subject, data); err != nil {
			slog.Debug("publish attempt failed", "subject", subject, "attempt", attempt, "error", err)
			return err
		}
		return nil
	}, b)
	if err != nil {
		return fmt.Errorf("publish %s after %d attempts: %w", subject, attempt, err)
	}
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		slog.Warn("NATS drain failed", "error", err)
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second
	return b
}
