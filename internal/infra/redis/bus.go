package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"phone-trivia/internal/protocol"
)

// Bus broadcasts protocol envelopes over a Redis pub/sub channel. Every
// process subscribed to the channel sees every message, its own included.
type Bus struct {
	client  *redis.Client
	channel string
	sender  string
	log     zerolog.Logger
	now     func() time.Time
}

func NewBus(client *redis.Client, channel, sender string, logger zerolog.Logger) *Bus {
	return &Bus{
		client:  client,
		channel: channel,
		sender:  sender,
		log:     logger.With().Str("bus", "redis").Str("channel", channel).Logger(),
		now:     time.Now,
	}
}

func (b *Bus) Send(ctx context.Context, msg protocol.Message) error {
	data, err := protocol.Encode(msg, b.sender, b.now())
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Subscribe returns once Redis has confirmed the subscription, so nothing
// published afterwards is missed.
func (b *Bus) Subscribe(handler func(protocol.Message)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		b.log.Warn().Err(err).Msg("subscribe confirmation failed")
	}

	go func() {
		for m := range ps.Channel() {
			_, msg, err := protocol.Decode([]byte(m.Payload))
			if err != nil {
				b.log.Warn().Err(err).Msg("dropping undecodable message")
				continue
			}
			handler(msg)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = ps.Close()
		})
	}
}
