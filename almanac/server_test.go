package almanac

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestServer builds an almanac with an attached (but not started)
// web server and a fixed clock.
func newTestServer(t *testing.T) (*Almanac, *WebServer) {
	t.Helper()

	config := quebecConfig()
	config.ServerPort = 8080

	almanac := NewWithServer(config, testLogger())
	almanac.nowFunc = func() time.Time {
		return time.Date(2015, time.December, 18, 10, 30, 0, 0, time.UTC)
	}
	if almanac.webServer == nil {
		t.Fatal("Expected web server to be attached")
	}
	return almanac, almanac.webServer
}

func TestNewWebServer_DisabledPort(t *testing.T) {
	almanac := New(quebecConfig(), testLogger())

	ws := NewWebServer(almanac, 0)
	if ws != nil {
		t.Error("Expected nil web server for port 0")
	}

	// Disabled servers are no-ops
	if err := ws.Start(); err != nil {
		t.Errorf("Start on disabled server: %v", err)
	}
	if err := ws.Stop(context.Background()); err != nil {
		t.Errorf("Stop on disabled server: %v", err)
	}
}

func TestSunHandler_Defaults(t *testing.T) {
	_, ws := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sun", nil)
	rec := httptest.NewRecorder()
	ws.sunHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Date != "2015-12-18" {
		t.Errorf("Expected date 2015-12-18, got %s", resp.Date)
	}
	if resp.Latitude != 46.805 || resp.Longitude != -71.2316 {
		t.Errorf("Expected configured location, got (%f, %f)", resp.Latitude, resp.Longitude)
	}
	if resp.Sunrise.Outcome != "occurs" || resp.Sunset.Outcome != "occurs" {
		t.Errorf("Expected occurring events, got %+v", resp)
	}
}

func TestSunHandler_QueryParameters(t *testing.T) {
	_, ws := newTestServer(t)

	// Reference scenario at offset 0
	url := "/api/sun?lat=46.805&lon=-71.2316&date=2015-12-18&offset=0&zenith=90.833"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	ws.sunHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Sunrise.Time != "2015-12-18T12:25:10Z" {
		t.Errorf("Expected sunrise 2015-12-18T12:25:10Z, got %s", resp.Sunrise.Time)
	}
	if resp.Sunset.Time != "2015-12-18T20:57:48Z" {
		t.Errorf("Expected sunset 2015-12-18T20:57:48Z, got %s", resp.Sunset.Time)
	}
}

func TestSunHandler_PolarLocation(t *testing.T) {
	_, ws := newTestServer(t)

	url := "/api/sun?lat=78.2232&lon=15.6267&date=2015-12-18&offset=1"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	ws.sunHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Sunrise.Outcome != "polar night" {
		t.Errorf("Expected polar night, got %s", resp.Sunrise.Outcome)
	}
	if resp.Sunrise.Time != "" {
		t.Errorf("Expected no sunrise time, got %s", resp.Sunrise.Time)
	}
}

func TestSunHandler_BadRequests(t *testing.T) {
	_, ws := newTestServer(t)

	tests := []struct {
		name string
		url  string
	}{
		{"malformed latitude", "/api/sun?lat=abc"},
		{"malformed date", "/api/sun?date=18-12-2015"},
		{"latitude out of range", "/api/sun?lat=95"},
		{"offset out of range", "/api/sun?offset=20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			ws.sunHandler(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSunHandler_MethodNotAllowed(t *testing.T) {
	_, ws := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sun", nil)
	rec := httptest.NewRecorder()
	ws.sunHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	almanac, ws := newTestServer(t)

	// Not running yet: unhealthy
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	ws.healthHandler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before start, got %d", rec.Code)
	}

	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if health.Status != "unhealthy" {
		t.Errorf("Expected unhealthy status, got %s", health.Status)
	}

	// Mark as running: healthy
	almanac.mu.Lock()
	almanac.isRunning = true
	almanac.mu.Unlock()

	rec = httptest.NewRecorder()
	ws.healthHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 when running, got %d", rec.Code)
	}
}

func TestReadinessHandler(t *testing.T) {
	almanac, ws := newTestServer(t)

	almanac.mu.Lock()
	almanac.isRunning = true
	almanac.mu.Unlock()

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	rec := httptest.NewRecorder()
	ws.readinessHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var ready map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &ready); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if ready["ready"] != true {
		t.Errorf("Expected ready=true, got %v", ready["ready"])
	}
}

func TestStatusHandler(t *testing.T) {
	almanac, ws := newTestServer(t)
	almanac.refresh(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	ws.statusHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var status map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status["type"] != "status_update" {
		t.Errorf("Expected status_update type, got %v", status["type"])
	}
	if _, ok := status["position"]; !ok {
		t.Error("Expected solar position in status payload")
	}
	sun, ok := status["sun"].(map[string]any)
	if !ok {
		t.Fatal("Expected sun section after refresh")
	}
	if sun["date"] != "2015-12-18" {
		t.Errorf("Expected cached date 2015-12-18, got %v", sun["date"])
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 14*time.Minute + 9*time.Second, "2h14m9s"},
	}

	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v): expected %q, got %q", tt.d, tt.want, got)
		}
	}
}
