// Package websocket is the live push surface: explore snapshots are fanned
// out to every connected client, per-user frames go to one user's
// connections.
package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// MessageToSend targets one user's active connections.
type MessageToSend struct {
	TargetUserID string
	Payload      []byte
}

// Frame is the JSON envelope pushed to clients.
type Frame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub maintains the set of active clients and routes outbound frames.
type Hub struct {
	// Registered clients, a set of connections per user ID.
	Clients map[string]map[*Client]bool

	// Frames for every connected client.
	Broadcast chan []byte

	// Frames for one user's connections.
	SendDirect chan *MessageToSend

	Register   chan *Client
	Unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte),
		SendDirect: make(chan *MessageToSend),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[string]map[*Client]bool),
	}
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	log.Println("WebSocket Hub started.")
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.Clients[client.UserID]; !ok {
				h.Clients[client.UserID] = make(map[*Client]bool)
			}
			h.Clients[client.UserID][client] = true
			log.Printf("WebSocket client registered for user %s (%d connections)", client.UserID, len(h.Clients[client.UserID]))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if userClients, ok := h.Clients[client.UserID]; ok {
				if _, clientOk := userClients[client]; clientOk {
					delete(userClients, client)
					if len(userClients) == 0 {
						delete(h.Clients, client.UserID)
					}
					log.Printf("WebSocket client unregistered for user %s", client.UserID)
				}
			}
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.RLock()
			for _, userClients := range h.Clients {
				for client := range userClients {
					select {
					case client.Send <- message:
					default:
						log.Printf("Broadcast send buffer full for a client of user %s", client.UserID)
					}
				}
			}
			h.mu.RUnlock()

		case direct := <-h.SendDirect:
			h.mu.RLock()
			if userClients, ok := h.Clients[direct.TargetUserID]; ok {
				for client := range userClients {
					select {
					case client.Send <- direct.Payload:
					default:
						log.Printf("Send buffer full for a client of user %s, frame dropped", client.UserID)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastFrame pushes a typed JSON frame to every connected client.
func (h *Hub) BroadcastFrame(frameType string, payload interface{}) {
	data, err := json.Marshal(&Frame{Type: frameType, Payload: payload})
	if err != nil {
		log.Printf("WebSocket frame marshal failed: %v", err)
		return
	}
	select {
	case h.Broadcast <- data:
	case <-time.After(1 * time.Second):
		log.Printf("Timeout queuing broadcast frame %q", frameType)
	}
}

// SendFrameToUser pushes a typed JSON frame to one user's connections.
func (h *Hub) SendFrameToUser(targetUserID, frameType string, payload interface{}) {
	data, err := json.Marshal(&Frame{Type: frameType, Payload: payload})
	if err != nil {
		log.Printf("WebSocket frame marshal failed: %v", err)
		return
	}
	select {
	case h.SendDirect <- &MessageToSend{TargetUserID: targetUserID, Payload: data}:
	case <-time.After(1 * time.Second):
		log.Printf("Timeout queuing frame %q for user %s", frameType, targetUserID)
	}
}
