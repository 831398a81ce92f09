package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Events pushed to camera watchers.
const (
	EventAlertCreated    = "alert_created"
	EventActivityCreated = "activity_created"
	EventStreamStatus    = "stream_status"
)

// Hub maintains camera_id -> set of connections and broadcasts events.
// Uses Redis pub/sub for horizontal scaling: local broadcast + publish to Redis.
type Hub struct {
	// cameraID -> map[clientID]*Client
	cameras  map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per camera
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishCameraEvent(cameraID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to camera channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeCamera(cameraID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		cameras:  make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a camera room. Starts the Redis subscription for
// the camera when the first watcher arrives.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.cameras[c.CameraID] == nil {
		h.cameras[c.CameraID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeCamera(c.CameraID, func(event string, payload []byte) {
				h.BroadcastToCamera(c.CameraID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.CameraID] = cancel
			}
		}
	}
	h.cameras[c.CameraID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("watcher joined camera", zap.String("client_id", c.ID), zap.String("camera_id", c.CameraID.String()))
}

// Unregister removes a client from its camera room. Cancels the Redis
// subscription when the last watcher leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.cameras[c.CameraID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.cameras, c.CameraID)
			if cancel, ok := h.subs[c.CameraID]; ok {
				cancel()
				delete(h.subs, c.CameraID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("watcher left camera", zap.String("client_id", c.ID), zap.String("camera_id", c.CameraID.String()))
}

// BroadcastToCamera sends an event to all local watchers of a camera.
func (h *Hub) BroadcastToCamera(cameraID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	// Copy the room under the lock. Register and Unregister mutate the
	// inner map, so it must not be iterated after the lock is released.
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.cameras[cameraID]))
	for _, c := range h.cameras[cameraID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// BroadcastToCameraAndPublish sends to local watchers and publishes to Redis
// for other instances.
func (h *Hub) BroadcastToCameraAndPublish(cameraID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.BroadcastToCamera(cameraID, event, payload)
	if h.redis != nil {
		_ = h.redis.PublishCameraEvent(cameraID, event, data)
	}
}

// WatcherCount returns the number of connected watchers for a camera.
func (h *Hub) WatcherCount(cameraID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.cameras[cameraID])
}
