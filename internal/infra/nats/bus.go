// Package nats carries the message contract over core NATS subjects, one
// subject per room.
package nats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"phone-trivia/internal/domain"
	"phone-trivia/internal/protocol"
)

// Config describes the NATS connection.
type Config struct {
	URL           string
	Subject       string // e.g., "trivia.room-1"
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns a local, infinitely reconnecting configuration.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Subject:       "trivia.default",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

type Bus struct {
	nc      *nats.Conn
	subject string
	sender  string
	log     zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// Connect dials NATS and returns a bus publishing on cfg.Subject.
func Connect(cfg Config, sender string, logger zerolog.Logger) (*Bus, error) {
	log := logger.With().Str("bus", "nats").Str("subject", cfg.Subject).Logger()
	opts := []nats.Option{
		nats.Name("phone-trivia/" + sender),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Bus{nc: nc, subject: cfg.Subject, sender: sender, log: log}, nil
}

func (b *Bus) Send(ctx context.Context, msg protocol.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return domain.ErrBusClosed
	}
	data, err := protocol.Encode(msg, b.sender, time.Now())
	if err != nil {
		return err
	}
	return b.nc.Publish(b.subject, data)
}

func (b *Bus) Subscribe(handler func(protocol.Message)) func() {
	sub, err := b.nc.Subscribe(b.subject, func(m *nats.Msg) {
		_, msg, err := protocol.Decode(m.Data)
		if err != nil {
			b.log.Warn().Err(err).Msg("dropping undecodable message")
			return
		}
		handler(msg)
	})
	if err != nil {
		b.log.Error().Err(err).Msg("subscribe failed")
		return func() {}
	}
	// make sure the server knows about the subscription before returning
	if err := b.nc.Flush(); err != nil {
		b.log.Warn().Err(err).Msg("flush after subscribe failed")
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
				b.log.Debug().Err(err).Msg("unsubscribe")
			}
		})
	}
}

// Close drains pending messages and closes the connection.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	return b.nc.Drain()
}
