package brackets

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types pushed to tournament rooms.
const (
	EventMatchUpdated        = "MATCH_UPDATED"
	EventBracketUpdated      = "BRACKET_UPDATED"
	EventStandingsUpdated    = "STANDINGS_UPDATED"
	EventTournamentCompleted = "TOURNAMENT_COMPLETED"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	eventBacklog   = 64
)

// Event is the frame sent to watchers of a tournament.
type Event struct {
	Type         string      `json:"type"`
	TournamentID int         `json:"tournament_id"`
	Payload      interface{} `json:"payload"`
	SentAt       time.Time   `json:"sent_at"`
}

type roomMessage struct {
	room string
	data []byte
}

// Client is one websocket subscriber. Send is closed by the hub only.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
	Room string
}

// Hub fans out tournament events to websocket clients grouped in rooms,
// one room per tournament. Room membership changes only inside Run.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan roomMessage

	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, eventBacklog),
		rooms:      make(map[string]map[*Client]struct{}),
		logger:     logger,
	}
}

func RoomForTournament(tournamentID int) string {
	return strconv.Itoa(tournamentID)
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.Register:
			h.join(c)
		case c := <-h.Unregister:
			h.leave(c)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.Room]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.Room] = room
	}
	room[c] = struct{}{}
	h.logger.Debug("websocket client joined", slog.String("room", c.Room), slog.Int("clients", len(room)))
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *Client) {
	room, ok := h.rooms[c.Room]
	if !ok {
		return
	}
	if _, member := room[c]; !member {
		return
	}
	delete(room, c)
	close(c.Send)
	if len(room) == 0 {
		delete(h.rooms, c.Room)
	}
}

// deliver hands the frame to every client of the room. A client whose
// buffer is full is disconnected rather than left with a gap in its feed.
func (h *Hub) deliver(msg roomMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[msg.room] {
		select {
		case c.Send <- msg.data:
		default:
			h.logger.Warn("websocket client too slow, disconnecting", slog.String("room", msg.room))
			h.dropLocked(c)
		}
	}
}

// Publish queues an event for every client watching the tournament. It
// never blocks the caller; events are dropped when the backlog is full.
func (h *Hub) Publish(tournamentID int, eventType string, payload interface{}) {
	data, err := json.Marshal(Event{Type: eventType, TournamentID: tournamentID, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		h.logger.Error("failed to encode event", slog.Int("tournament_id", tournamentID), slog.String("type", eventType), slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- roomMessage{room: RoomForTournament(tournamentID), data: data}:
	default:
		h.logger.Warn("event backlog full, dropping event", slog.Int("tournament_id", tournamentID), slog.String("type", eventType))
	}
}

// RoomSize returns the number of clients currently in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// ReadPump keeps the read deadline alive through pongs. Watchers only
// listen, so anything they send is discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		_ = c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("websocket closed unexpectedly", slog.String("room", c.Room), slog.Any("error", err))
			}
			return
		}
	}
}

// WritePump sends one frame per event and pings on an interval. It exits
// when the hub closes Send or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		var (
			kind int
			data []byte
		)
		select {
		case msg, ok := <-c.Send:
			if !ok {
				_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			kind, data = websocket.TextMessage, msg
		case <-ticker.C:
			kind = websocket.PingMessage
		}
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteMessage(kind, data); err != nil {
			c.Hub.logger.Debug("websocket write failed", slog.String("room", c.Room), slog.Any("error", err))
			return
		}
	}
}
