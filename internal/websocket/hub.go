package websocket

import (
	"github.com/rs/zerolog/log"
)

// GlobalTopic is the topic of clients that receive every published message.
const GlobalTopic = "global"

type publication struct {
	topic string
	data  []byte
}

type reply struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and fans published messages out to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// A map of topics (listing IDs) to the clients subscribed to them.
	subscriptions map[string]map[*Client]bool

	publish chan publication
	replies chan reply
	done    chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		publish:       make(chan publication, 256),
		replies:       make(chan reply, 64),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.Register:
			h.clients[client] = true
			h.addSubscription(client, client.Topic)
			log.Info().Int("total_clients", len(h.clients)).Str("topic", client.Topic).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case r := <-h.replies:
			if h.clients[r.client] {
				h.send(r.client, r.data)
			}
		case p := <-h.publish:
			h.deliver(GlobalTopic, p.data)
			if p.topic != "" && p.topic != GlobalTopic {
				h.deliver(p.topic, p.data)
			}
		}
	}
}

// Publish queues data for clients subscribed to topic and for global clients.
// It never blocks; when the queue is full the message is dropped.
func (h *Hub) Publish(topic string, data []byte) {
	select {
	case h.publish <- publication{topic: topic, data: data}:
	case <-h.done:
	default:
		log.Warn().Str("topic", topic).Msg("Hub publish queue full, dropping message")
	}
}

// Reply queues data for a single client. It is dropped if the client has
// already left or the hub has stopped.
func (h *Hub) Reply(client *Client, data []byte) {
	select {
	case h.replies <- reply{client: client, data: data}:
	case <-h.done:
	}
}

// Join registers client with the hub unless the hub has stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters client unless the hub has stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Stop halts the Hub and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) deliver(topic string, data []byte) {
	for client := range h.subscriptions[topic] {
		h.send(client, data)
	}
}

// send hands data to client, dropping a client whose buffer is full.
func (h *Hub) send(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	h.removeSubscription(client)
	close(client.Send)
}

func (h *Hub) addSubscription(client *Client, topic string) {
	if h.subscriptions[topic] == nil {
		h.subscriptions[topic] = make(map[*Client]bool)
	}
	h.subscriptions[topic][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	if subs, ok := h.subscriptions[client.Topic]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.Topic)
		}
	}
}
