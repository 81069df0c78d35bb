package http

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"phone-trivia/internal/domain"
	"phone-trivia/internal/protocol"
)

// RelayURL builds the websocket address of a relay room.
func RelayURL(base, room, id, role string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	q := u.Query()
	q.Set("room", room)
	q.Set("id", id)
	if role != "" {
		q.Set("role", role)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// WSBus is a bus backed by one websocket connection to a Relay.
type WSBus struct {
	conn   *websocket.Conn
	sender string
	log    zerolog.Logger

	writeMu sync.Mutex

	mu     sync.RWMutex
	nextID int
	subs   []wsSubscription
	closed bool

	done      chan struct{}
	closeOnce sync.Once
}

type wsSubscription struct {
	id      int
	handler func(protocol.Message)
}

// Dial connects to a relay room. Frames that do not decode are dropped.
func Dial(ctx context.Context, rawURL, sender string, logger zerolog.Logger) (*WSBus, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	b := &WSBus{
		conn:   conn,
		sender: sender,
		log:    logger.With().Str("bus", "ws").Logger(),
		done:   make(chan struct{}),
	}
	go b.readLoop()
	return b, nil
}

func (b *WSBus) Send(ctx context.Context, msg protocol.Message) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return domain.ErrBusClosed
	}
	data, err := protocol.Encode(msg, b.sender, time.Now())
	if err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	_ = b.conn.SetWriteDeadline(deadline)
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *WSBus) Subscribe(handler func(protocol.Message)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, wsSubscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Done is closed when the connection drops or Close is called.
func (b *WSBus) Done() <-chan struct{} {
	return b.done
}

func (b *WSBus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()

		b.writeMu.Lock()
		_ = b.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		b.writeMu.Unlock()
		err = b.conn.Close()
	})
	return err
}

func (b *WSBus) readLoop() {
	defer close(b.done)
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			b.log.Debug().Err(err).Msg("ws read loop stopped")
			b.mu.Lock()
			b.closed = true
			b.mu.Unlock()
			return
		}
		_, msg, err := protocol.Decode(data)
		if err != nil {
			b.log.Debug().Err(err).Msg("dropping frame")
			continue
		}
		b.mu.RLock()
		subs := append([]wsSubscription(nil), b.subs...)
		b.mu.RUnlock()
		for _, s := range subs {
			s.handler(msg)
		}
	}
}
