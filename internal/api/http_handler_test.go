package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"pulse-monitor/internal/device"
	"pulse-monitor/internal/discovery"
)

func newTestRouter(t *testing.T) (*mux.Router, *device.Registry) {
	t.Helper()

	registry := device.NewRegistry(device.NewTCPTransport(0, 0))
	scanner := discovery.NewStaticScanner([]discovery.Device{
		{ID: "127.0.0.1:9100", Name: "ESP32_HR_1"},
	})

	router := mux.NewRouter()
	NewHTTPHandler(context.Background(), registry, scanner).RegisterRoutes(router)
	return router, registry
}

func TestRegisterDevice(t *testing.T) {
	router, registry := newTestRouter(t)

	body := strings.NewReader(`{"target":"127.0.0.1:9100","name":"wrist"}`)
	req := httptest.NewRequest("POST", "/api/devices/1/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := registry.Device(1); !ok {
		t.Errorf("Expected device 1 registered")
	}
}

func TestRegisterDevice_MissingTarget(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("POST", "/api/devices/1/register", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing target, got %d", rec.Code)
	}
}

func TestListDevices(t *testing.T) {
	router, registry := newTestRouter(t)

	if err := registry.Register(1, "dev1", "127.0.0.1:9100"); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/devices", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Devices map[string]device.Snapshot `json:"devices"`
		Count   int                        `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("Expected 1 device, got %d", resp.Count)
	}
	if snap, ok := resp.Devices["1"]; !ok || snap.Status != device.StatusDisconnected {
		t.Errorf("Expected idle device 1 in response")
	}
}

func TestGetDevice_NotRegistered(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/devices/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestDiscover(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/discovery", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Devices []discovery.Device `json:"devices"`
		Count   int                `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 1 || resp.Devices[0].Name != "ESP32_HR_1" {
		t.Errorf("Unexpected discovery response: %+v", resp)
	}
}
