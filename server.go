package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// StatsResponse is served at /stats
type StatsResponse struct {
	MatchID     string         `json:"match_id"`
	Tick        int            `json:"tick"`
	TickRate    int            `json:"tick_rate"`
	Projectiles int            `json:"projectiles"`
	Clients     int            `json:"clients"`
	Events      map[string]int `json:"events,omitempty"`
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		resp := StatsResponse{
			MatchID:     hub.game.MatchID(),
			Tick:        hub.game.Tick(),
			TickRate:    hub.game.TickRate(),
			Projectiles: hub.game.ProjectileCount(),
			Clients:     hub.ClientCount(),
		}
		if hub.db != nil {
			counts, err := hub.db.EventCounts(resp.MatchID)
			if err != nil {
				log.Printf("stats query error: %v", err)
			} else {
				resp.Events = counts
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		var name string
		if hub.auth != nil {
			var err error
			name, err = hub.auth.ValidateToken(r.URL.Query().Get("token"))
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip, name)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	return mux
}
