// Package messaging relays job lifecycle events to NATS so external
// consumers can follow job progress without polling.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"entitysync/internal/application/common/slogger"
	"entitysync/internal/config"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectPrefix is prepended to every published subject.
	SubjectPrefix = "entitysync.jobs"

	natsConnectionTimeout = 5 * time.Second
)

// NATSEventPublisher publishes job lifecycle events to NATS subjects under
// SubjectPrefix. In test mode no connection is made and publishes are
// recorded in memory instead.
type NATSEventPublisher struct {
	config     config.NATSConfig
	conn       *nats.Conn
	isTestMode bool

	mutex     sync.RWMutex
	published []PublishedEvent
}

// PublishedEvent records one publish made in test mode.
type PublishedEvent struct {
	Subject string
	Payload []byte
}

// NewNATSEventPublisher validates the config and creates a publisher.
// Connection is deferred to Connect so construction never blocks.
func NewNATSEventPublisher(cfg config.NATSConfig) (*NATSEventPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("NATS URL cannot be empty")
	}
	if !strings.HasPrefix(cfg.URL, "nats://") {
		return nil, errors.New("invalid NATS URL scheme")
	}
	if cfg.MaxReconnects < 0 {
		return nil, errors.New("max reconnects cannot be negative")
	}
	if cfg.ReconnectWait < 0 {
		return nil, errors.New("reconnect wait cannot be negative")
	}

	return &NATSEventPublisher{config: cfg}, nil
}

// NewTestEventPublisher creates a publisher that records publishes in
// memory, for use in unit tests and standalone mode.
func NewTestEventPublisher() *NATSEventPublisher {
	return &NATSEventPublisher{isTestMode: true}
}

// Connect establishes the NATS connection.
func (p *NATSEventPublisher) Connect(ctx context.Context) error {
	if p.isTestMode {
		return nil
	}

	conn, err := nats.Connect(p.config.URL,
		nats.Timeout(natsConnectionTimeout),
		nats.MaxReconnects(p.config.MaxReconnects),
		nats.ReconnectWait(p.config.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slogger.ErrorNoCtx("NATS disconnected", slogger.Field("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slogger.InfoNoCtx("NATS reconnected", slogger.Field("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", p.config.URL, err)
	}

	p.mutex.Lock()
	p.conn = conn
	p.mutex.Unlock()

	slogger.Info(ctx, "connected to NATS", slogger.Field("url", p.config.URL))
	return nil
}

// PublishJobEvent publishes the payload to the subject derived from the
// event name: "job.started" maps to "entitysync.jobs.started".
func (p *NATSEventPublisher) PublishJobEvent(_ context.Context, eventName string, payload []byte) error {
	subject := SubjectPrefix + "." + strings.TrimPrefix(eventName, "job.")

	if p.isTestMode {
		p.mutex.Lock()
		p.published = append(p.published, PublishedEvent{Subject: subject, Payload: payload})
		p.mutex.Unlock()
		return nil
	}

	p.mutex.RLock()
	conn := p.conn
	p.mutex.RUnlock()
	if conn == nil {
		return errors.New("NATS connection not established")
	}

	if err := conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Published returns the events recorded in test mode.
func (p *NATSEventPublisher) Published() []PublishedEvent {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	events := make([]PublishedEvent, len(p.published))
	copy(events, p.published)
	return events
}

// Close drains and closes the connection.
func (p *NATSEventPublisher) Close() error {
	if p.isTestMode {
		return nil
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Drain()
	p.conn = nil
	return err
}
