package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"phone-trivia/internal/protocol"
)

const (
	RoleController = "controller"
	RoleClient     = "client"
)

// Relay fans protocol envelopes between the websocket peers of a room. It
// never interprets game state; it only checks that frames decode.
type Relay struct {
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*peer]struct{}
}

type peer struct {
	id   string
	role string
	send chan []byte
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func NewRelay(logger zerolog.Logger) *Relay {
	return &Relay{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:   logger.With().Str("component", "relay").Logger(),
		rooms: make(map[string]map[*peer]struct{}),
	}
}

// ServeWS upgrades the request and joins the peer to ?room=. Controllers
// (?role=controller) are announced to the room with controller-ready.
func (h *Relay) ServeWS(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	id := r.URL.Query().Get("id")
	role := r.URL.Query().Get("role")
	if room == "" || id == "" {
		http.Error(w, "missing room or id", http.StatusBadRequest)
		return
	}
	if role == "" {
		role = RoleClient
	}
	if role != RoleClient && role != RoleController {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	p := &peer{id: id, role: role, send: make(chan []byte, 32)}
	h.join(room, p)
	log := h.log.With().Str("room", room).Str("peer", id).Str("role", role).Logger()
	log.Info().Msg("peer joined")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for data := range p.send {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	if role == RoleController {
		h.announceController(room, p)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_, msg, err := protocol.Decode(data)
		if err != nil {
			log.Debug().Err(err).Msg("rejecting frame")
			h.reply(room, p, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			continue
		}
		if msg.Kind().FromController() && role != RoleController {
			h.reply(room, p, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "only controllers may send " + string(msg.Kind())}})
			continue
		}
		h.fanout(room, p, data)
	}

	h.leave(room, p)
	close(p.send)
	<-writerDone
	log.Info().Msg("peer left")
}

// PeerCount returns the number of peers connected to room.
func (h *Relay) PeerCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Relay) join(room string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers, ok := h.rooms[room]
	if !ok {
		peers = make(map[*peer]struct{})
		h.rooms[room] = peers
	}
	peers[p] = struct{}{}
}

func (h *Relay) leave(room string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[room], p)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
}

// fanout delivers data to every other peer in the room. A peer whose buffer
// is full misses the frame; its client recovers through a state request.
func (h *Relay) fanout(room string, from *peer, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for p := range h.rooms[room] {
		if p == from {
			continue
		}
		select {
		case p.send <- data:
		default:
			h.log.Warn().Str("room", room).Str("peer", p.id).Msg("peer too slow, dropping frame")
		}
	}
}

func (h *Relay) reply(room string, p *peer, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.rooms[room][p]; !ok {
		return
	}
	select {
	case p.send <- data:
	default:
	}
}

func (h *Relay) announceController(room string, p *peer) {
	data, err := protocol.Encode(protocol.ControllerReady{ControllerID: p.id}, "relay-"+uuid.NewString(), time.Now())
	if err != nil {
		h.log.Error().Err(err).Msg("encode controller-ready")
		return
	}
	h.fanout(room, p, data)
}
