package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lecturenotes/backend/internal/lectures"
	"github.com/lecturenotes/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// LectureEvent is the data of lecture_created, lecture_updated and
// lecture_deleted messages. Clients refetch the lecture on receipt.
type LectureEvent struct {
	LectureID uuid.UUID `json:"lecture_id"`
	UnitID    uuid.UUID `json:"unit_id"`
	Fields    []string  `json:"fields,omitempty"`
}

// Hub maintains unit_id -> set of connections and fans lecture changes out
// to them. With Redis configured, events go through pub/sub so every
// instance delivers them exactly once.
type Hub struct {
	// unitID -> map[clientID]*Client
	units    map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per unit
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

var _ lectures.Notifier = (*Hub)(nil)

// RedisPublisher publishes unit events for other instances.
type RedisPublisher interface {
	PublishUnitEvent(unitID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to unit channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeUnit(unitID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		units:    make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to its unit room. Starts the Redis subscription for
// the unit on its first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.units[c.UnitID] == nil {
		h.units[c.UnitID] = make(map[string]*Client)
		if h.redisSub != nil {
			unitID := c.UnitID
			cancel, err := h.redisSub.SubscribeUnit(unitID, func(event string, payload []byte) {
				h.Broadcast(unitID, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("redis subscribe failed", zap.Error(err), zap.String("unit_id", unitID.String()))
			} else {
				h.subs[unitID] = cancel
			}
		}
	}
	h.units[c.UnitID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined unit", zap.String("client_id", c.ID), zap.String("unit_id", c.UnitID.String()))
}

// Unregister removes a client from its unit room and closes its send
// channel. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.units[c.UnitID]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.units, c.UnitID)
			if cancel, ok := h.subs[c.UnitID]; ok {
				cancel()
				delete(h.subs, c.UnitID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left unit", zap.String("client_id", c.ID), zap.String("unit_id", c.UnitID.String()))
}

// Broadcast sends a message to all local clients watching a unit.
func (h *Hub) Broadcast(unitID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Error("marshal event failed", zap.Error(err), zap.String("event", event))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.units[unitID] {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("client send buffer full, dropping event", zap.String("client_id", c.ID), zap.String("event", event))
		}
	}
}

// NotifyLecture tells clients of the lecture's unit that it changed.
func (h *Hub) NotifyLecture(event string, l *models.Lecture, fields ...string) {
	payload := LectureEvent{LectureID: l.ID, UnitID: l.UnitID, Fields: fields}
	if h.redis != nil {
		data, err := json.Marshal(payload)
		if err == nil {
			err = h.redis.PublishUnitEvent(l.UnitID, event, data)
		}
		if err == nil {
			return
		}
		h.logger.Warn("redis publish failed, delivering locally", zap.Error(err), zap.String("event", event))
	}
	h.Broadcast(l.UnitID, event, payload)
}

// ClientCount returns the number of local clients watching a unit.
func (h *Hub) ClientCount(unitID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.units[unitID])
}
