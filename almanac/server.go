package almanac

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devskill-org/suntimes/solar"
)

// WebServer provides HTTP endpoints for health checking, on-demand
// calculations, and a WebSocket feed of the live solar position.
type WebServer struct {
	almanac   *Almanac
	server    *http.Server
	port      int
	startTime time.Time
	upgrader  websocket.Upgrader
	clients   sync.Map
	broadcast chan []byte
	done      chan struct{}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp string        `json:"timestamp"`
	Version   string        `json:"version,omitempty"`
	Almanac   AlmanacHealth `json:"almanac"`
	System    SystemHealth  `json:"system"`
}

// AlmanacHealth represents almanac-specific health information
type AlmanacHealth struct {
	IsRunning  bool       `json:"is_running"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	UTCOffset  float64    `json:"utc_offset"`
	ComputedAt *time.Time `json:"computed_at,omitempty"`
}

// SystemHealth represents system-level health information
type SystemHealth struct {
	Uptime string `json:"uptime"`
}

// SunResponse is the payload for the on-demand calculation endpoint
type SunResponse struct {
	Date      string        `json:"date"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Zenith    float64       `json:"zenith"`
	UTCOffset float64       `json:"utc_offset"`
	Sunrise   EventResponse `json:"sunrise"`
	Sunset    EventResponse `json:"sunset"`
}

// EventResponse is a single rise/set event on the wire
type EventResponse struct {
	Time    string `json:"time,omitempty"` // RFC3339, absent when the event does not occur
	Outcome string `json:"outcome"`
}

// NewWebServer creates a new web server with health, calculation, and
// WebSocket endpoints.
func NewWebServer(almanac *Almanac, port int) *WebServer {
	if port <= 0 {
		return nil // Web server disabled
	}

	mux := http.NewServeMux()
	ws := &WebServer{
		almanac:   almanac,
		port:      port,
		startTime: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
		broadcast: make(chan []byte, 256),
		done:      make(chan struct{}),
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	mux.HandleFunc("/api/health", ws.healthHandler)
	mux.HandleFunc("/api/ready", ws.readinessHandler)
	mux.HandleFunc("/api/status", ws.statusHandler)
	mux.HandleFunc("/api/sun", ws.sunHandler)
	mux.HandleFunc("/api/ws", ws.wsHandler)

	return ws
}

// Start starts the web server
func (ws *WebServer) Start() error {
	if ws == nil {
		return nil // Web server disabled
	}

	go ws.handleBroadcasts()
	go ws.broadcastStatus()

	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.almanac.logger.Printf("Web server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully stops the web server
func (ws *WebServer) Stop(ctx context.Context) error {
	if ws == nil {
		return nil // Web server disabled
	}

	close(ws.done)

	ws.clients.Range(func(key, value any) bool {
		if conn, ok := key.(*websocket.Conn); ok {
			conn.Close()
		}
		return true
	})

	return ws.server.Shutdown(ctx)
}

// healthHandler handles the /api/health endpoint
func (ws *WebServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := ws.buildHealth()
	if health.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// readinessHandler handles the /api/ready endpoint
func (ws *WebServer) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := ws.almanac.GetStatus()

	ready := map[string]any{
		"ready":     status.IsRunning,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if !status.IsRunning {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(ready); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// statusHandler handles the /api/status endpoint (detailed status)
func (ws *WebServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ws.buildStatusData()); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sunHandler handles the /api/sun endpoint: an on-demand calculation
// for optional lat/lon/date/offset/zenith query parameters, defaulting
// to the configured location and the current date.
func (ws *WebServer) sunHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	config := ws.almanac.GetConfig()
	req := solar.Request{
		Date:      ws.almanac.nowFunc(),
		Location:  solar.Location{Latitude: config.Latitude, Longitude: config.Longitude},
		Zenith:    config.Zenith,
		UTCOffset: config.UTCOffset,
	}

	query := r.URL.Query()
	for _, param := range []struct {
		name string
		dst  *float64
	}{
		{"lat", &req.Location.Latitude},
		{"lon", &req.Location.Longitude},
		{"offset", &req.UTCOffset},
		{"zenith", &req.Zenith},
	} {
		raw := query.Get(param.name)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid %s parameter: %v", param.name, err), http.StatusBadRequest)
			return
		}
		*param.dst = value
	}

	if raw := query.Get("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid date parameter: %v", err), http.StatusBadRequest)
			return
		}
		req.Date = date
	}

	if err := solar.ValidateRequest(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := solar.Calculate(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	zenith := req.Zenith
	if zenith == 0 {
		zenith = solar.DefaultZenith
	}
	response := SunResponse{
		Date:      req.Date.Format("2006-01-02"),
		Latitude:  req.Location.Latitude,
		Longitude: req.Location.Longitude,
		Zenith:    zenith,
		UTCOffset: req.UTCOffset,
		Sunrise:   toEventResponse(result.Sunrise),
		Sunset:    toEventResponse(result.Sunset),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// wsHandler handles WebSocket connections
func (ws *WebServer) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.almanac.logger.Printf("WebSocket upgrade error: %v", err)
		return
	}

	ws.clients.Store(conn, true)
	ws.almanac.logger.Printf("New WebSocket client connected. Total clients: %d", ws.clientCount())

	// Send initial data immediately
	if err := conn.WriteJSON(ws.buildStatusData()); err != nil {
		ws.almanac.logger.Printf("Failed to send initial data: %v", err)
	}

	defer func() {
		ws.clients.Delete(conn)
		conn.Close()
		ws.almanac.logger.Printf("WebSocket client disconnected. Total clients: %d", ws.clientCount())
	}()

	// Read messages from client (ping/pong, close)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				ws.almanac.logger.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// handleBroadcasts sends messages to all connected clients
func (ws *WebServer) handleBroadcasts() {
	for {
		select {
		case message := <-ws.broadcast:
			ws.clients.Range(func(key, value any) bool {
				conn, ok := key.(*websocket.Conn)
				if !ok {
					return true
				}

				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					ws.almanac.logger.Printf("WebSocket write error: %v", err)
					conn.Close()
					ws.clients.Delete(conn)
				}
				return true
			})
		case <-ws.done:
			return
		}
	}
}

// broadcastStatus periodically broadcasts the live solar position and
// cached sun times.
func (ws *WebServer) broadcastStatus() {
	ticker := time.NewTicker(ws.almanac.GetConfig().BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if ws.clientCount() == 0 {
				continue
			}

			message, err := json.Marshal(ws.buildStatusData())
			if err != nil {
				ws.almanac.logger.Printf("Failed to marshal status data: %v", err)
				continue
			}
			ws.broadcast <- message
		case <-ws.done:
			return
		}
	}
}

// clientCount returns the number of connected WebSocket clients
func (ws *WebServer) clientCount() int {
	count := 0
	ws.clients.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

// buildHealth builds the health response
func (ws *WebServer) buildHealth() HealthResponse {
	status := ws.almanac.GetStatus()

	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
		Almanac: AlmanacHealth{
			IsRunning:  status.IsRunning,
			Latitude:   status.Latitude,
			Longitude:  status.Longitude,
			UTCOffset:  status.UTCOffset,
			ComputedAt: status.ComputedAt,
		},
		System: SystemHealth{
			Uptime: formatUptime(time.Since(ws.startTime)),
		},
	}

	if !status.IsRunning {
		health.Status = "unhealthy"
	}
	return health
}

// buildStatusData builds the combined payload for /api/status and the
// WebSocket feed.
func (ws *WebServer) buildStatusData() map[string]any {
	now := ws.almanac.nowFunc()
	position := ws.almanac.Position(now)

	data := map[string]any{
		"type":      "status_update",
		"health":    ws.buildHealth(),
		"position":  position,
		"daylight":  ws.almanac.IsDaylight(now),
		"timestamp": now.UTC().Format(time.RFC3339),
	}

	if today, date := ws.almanac.Today(); today != nil {
		data["sun"] = map[string]any{
			"date":    date.Format("2006-01-02"),
			"sunrise": toEventResponse(today.Sunrise),
			"sunset":  toEventResponse(today.Sunset),
		}
	}

	return data
}

// toEventResponse converts a solar event into its wire representation
func toEventResponse(e solar.Event) EventResponse {
	resp := EventResponse{Outcome: e.Outcome.String()}
	if e.Occurs() {
		resp.Time = e.Time.Format(time.RFC3339)
	}
	return resp
}

// formatUptime formats a duration as a string with seconds rounded to integer
func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
