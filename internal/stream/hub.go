package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans analysis events out to websocket subscribers. Events published
// while a session is being analyzed reach every watcher of that session,
// locally and, when redis is configured, across instances.
type Hub struct {
	redis    *redis.Client
	watchers map[string]map[*Watcher]struct{}
	mu       sync.RWMutex
}

type Watcher struct {
	SessionID string
	Send      chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:    redisClient,
		watchers: map[string]map[*Watcher]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(sessionID string) *Watcher {
	w := &Watcher{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[sessionID] == nil {
		h.watchers[sessionID] = map[*Watcher]struct{}{}
	}
	h.watchers[sessionID][w] = struct{}{}
	return w
}

func (h *Hub) Unregister(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessionWatchers, ok := h.watchers[w.SessionID]; ok {
		delete(sessionWatchers, w)
		if len(sessionWatchers) == 0 {
			delete(h.watchers, w.SessionID)
		}
	}
	close(w.Send)
}

// Broadcast delivers payload to every watcher of sessionID. With redis
// configured the payload goes through pub/sub so other instances see it too;
// the pattern subscription then handles local delivery, including our own.
// Slow watchers are skipped rather than blocked on.
func (h *Hub) Broadcast(sessionID string, payload []byte) {
	if h.redis == nil {
		h.deliver(sessionID, payload)
		return
	}

	err := h.redis.Publish(context.Background(), redisChannel(sessionID), payload).Err()
	if err != nil {
		log.Printf("redis publish error: %v", err)
		h.deliver(sessionID, payload)
	}
}

func (h *Hub) deliver(sessionID string, payload []byte) {
	h.mu.RLock()
	watchers := h.watchers[sessionID]
	h.mu.RUnlock()

	for w := range watchers {
		select {
		case w.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	pubsub := h.redis.PSubscribe(context.Background(), "analysis:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(sessionIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(sessionID string) string {
	return "analysis:" + sessionID + ":events"
}

func sessionIDFromChannel(ch string) string {
	// analysis:{session}:events
	const prefix = "analysis:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
