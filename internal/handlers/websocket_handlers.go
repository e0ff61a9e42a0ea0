package handlers

import (
	"log"
	"net/http"

	ws "github.com/tumer294/studio2/internal/websocket"

	"github.com/gorilla/websocket"
)

// HandleWebSocket upgrades the connection and registers the client with the
// hub. Browsers cannot set headers on the upgrade request, so the session
// token arrives as a query parameter.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range s.Config.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()

		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}
		claims, err := s.Tokens.ValidateToken(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := &ws.Client{
			Hub:    s.Hub,
			UserID: claims.UserID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
		}
		s.Hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
