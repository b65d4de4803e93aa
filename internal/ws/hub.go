// Package ws entrega o stream de eventos do sensor por websocket. O hub
// é single-tenant: todo cliente conectado recebe todos os envelopes.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
)

type Hub struct {
	logger     *slog.Logger
	clients    map[*Client]bool
	broadcast  chan event.Envelope
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan event.Envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run é o loop do hub. Cancelar o contexto fecha todos os clientes.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case env := <-h.broadcast:
			h.broadcastEnvelope(env)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.logger.Debug("ws client connected", "clients", len(h.clients))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) broadcastEnvelope(env event.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	message, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("ws marshal failed", "error", err, "type", env.Type)
		return
	}

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Cliente que não drena o buffer sai do hub: os loops do
			// sensor nunca podem ficar presos atrás de um consumidor.
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Broadcast publica o envelope para os clientes conectados. Nunca
// bloqueia: com o hub saturado o envelope é descartado.
func (h *Hub) Broadcast(env event.Envelope) {
	select {
	case h.broadcast <- env:
	default:
	}
}

// ClientCount devolve quantos clientes estão conectados.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
