package app

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/camera_tester/internal/config"
	"github.com/relabs-tech/camera_tester/internal/progress"
)

//go:embed static
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Hub fans progress events out to websocket clients and keeps the latest
// result for the JSON API.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*websocket.Conn]*sync.Mutex
	lastResult *progress.Event
	log        zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*sync.Mutex), log: logger}
}

// Broadcast sends ev to every connected client.
func (h *Hub) Broadcast(ev progress.Event) {
	h.mu.Lock()
	if ev.Type == progress.TypeResult {
		h.lastResult = &ev
	}
	conns := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for c, m := range h.clients {
		conns[c] = m
	}
	h.mu.Unlock()

	for conn, wmu := range conns {
		wmu.Lock()
		err := conn.WriteJSON(ev)
		wmu.Unlock()
		if err != nil {
			h.log.Debug().Err(err).Msg("web: dropping websocket client")
			h.remove(conn)
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// HandleWS upgrades the request and registers the client. The latest result,
// if any, is sent right away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("web: websocket upgrade error")
		return
	}
	wmu := &sync.Mutex{}

	h.mu.Lock()
	h.clients[conn] = wmu
	last := h.lastResult
	h.mu.Unlock()

	if last != nil {
		wmu.Lock()
		err := conn.WriteJSON(last)
		wmu.Unlock()
		if err != nil {
			h.remove(conn)
			return
		}
	}

	// Drain reads so close frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			return
		}
	}
}

// HandleLatest serves the latest calibration result as JSON.
func (h *Hub) HandleLatest(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	last := h.lastResult
	h.mu.RUnlock()

	if last == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(last); err != nil {
		h.log.Warn().Err(err).Msg("web: json encode error")
	}
}

// RunWeb bridges the MQTT progress topic to browsers.
func RunWeb(cfg *config.Config, logger zerolog.Logger) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("web: MQTT_BROKER is not set")
	}
	hub := NewHub(logger)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	logger.Info().Msgf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicProgress, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev progress.Event
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			logger.Warn().Err(err).Msg("web: MQTT payload unmarshal error")
			return
		}
		hub.Broadcast(ev)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	logger.Info().Msgf("web: subscribed to MQTT topic %s", cfg.TopicProgress)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	logger.Info().Msgf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, NewWebMux(hub))
}

// NewWebMux routes the websocket, the JSON API and the bundled page.
func NewWebMux(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.HandleFunc("/api/latest", hub.HandleLatest)

	page, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err) // static/ is embedded at build time
	}
	mux.Handle("/", http.FileServer(http.FS(page)))
	return mux
}
