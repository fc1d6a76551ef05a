package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans live walk samples out to websocket watchers, keyed by the
// walking user's id. Redis pub/sub bridges instances so a watcher can
// be connected to a different node than the walker.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	WalkerID string
	Send     chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(walkerID string) *Client {
	client := &Client{
		WalkerID: walkerID,
		Send:     make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[walkerID] == nil {
		h.clients[walkerID] = map[*Client]struct{}{}
	}
	h.clients[walkerID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if walkerClients, ok := h.clients[client.WalkerID]; ok {
		delete(walkerClients, client)
		if len(walkerClients) == 0 {
			delete(h.clients, client.WalkerID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(walkerID string, payload []byte) {
	// With Redis attached, delivery happens through the subscription
	// loop so local watchers do not see every sample twice.
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(walkerID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
		return
	}

	h.deliver(walkerID, payload)
}

// deliver holds the read lock across the whole fan-out. Sends are
// non-blocking, and Unregister closes Send only under the write lock,
// so a client can never be removed or closed mid-iteration.
func (h *Hub) deliver(walkerID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[walkerID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "walks:*:live")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(walkerIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(walkerID string) string {
	return "walks:" + walkerID + ":live"
}

func walkerIDFromChannel(ch string) string {
	// walks:{walker}:live
	const prefix = "walks:"
	const suffix = ":live"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
