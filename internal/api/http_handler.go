package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pulse-monitor/internal/device"
	"pulse-monitor/internal/discovery"
)

// HTTPHandler обрабатывает HTTP запросы управления реестром устройств
type HTTPHandler struct {
	registry *device.Registry
	scanner  discovery.Scanner

	// Базовый контекст циклов приема; живет до остановки процесса.
	runCtx context.Context
}

// NewHTTPHandler создает новый HTTP обработчик
func NewHTTPHandler(runCtx context.Context, registry *device.Registry, scanner discovery.Scanner) *HTTPHandler {
	return &HTTPHandler{
		registry: registry,
		scanner:  scanner,
		runCtx:   runCtx,
	}
}

// RegisterRoutes регистрирует маршруты в роутере
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/devices").Subrouter()

	api.HandleFunc("", h.ListDevices).Methods("GET")
	api.HandleFunc("/start", h.StartAll).Methods("POST")
	api.HandleFunc("/stop", h.StopAll).Methods("POST")
	api.HandleFunc("/{id}", h.GetDevice).Methods("GET")
	api.HandleFunc("/{id}/register", h.RegisterDevice).Methods("POST")

	router.HandleFunc("/api/discovery", h.Discover).Methods("GET")
}

// RegisterDeviceRequest — тело запроса регистрации слота.
type RegisterDeviceRequest struct {
	Name   string `json:"name,omitempty"`
	Target string `json:"target"`
}

// RegisterDevice заводит сессию для слота
// POST /api/devices/{id}/register
func (h *HTTPHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid device id")
		return
	}

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := req.Name
	if name == "" {
		name = "ESP32_HR_" + strconv.Itoa(id)
	}

	if err := h.registry.Register(id, name, req.Target); err != nil {
		log.Printf("[ERROR] Failed to register device %d: %v", id, err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Device registered",
		"device_id": id,
	})
}

// ListDevices возвращает снимок всех устройств
// GET /api/devices
func (h *HTTPHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	snapshot := h.registry.Snapshot()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"devices": snapshot,
		"running": h.registry.Running(),
		"count":   len(snapshot),
	})
}

// GetDevice возвращает снимок одного устройства
// GET /api/devices/{id}
func (h *HTTPHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid device id")
		return
	}

	snap, ok := h.registry.Device(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Device not registered")
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// StartAll запускает циклы приема всех устройств
// POST /api/devices/start
func (h *HTTPHandler) StartAll(w http.ResponseWriter, r *http.Request) {
	h.registry.StartAll(h.runCtx)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Device sessions started",
	})
}

// StopAll останавливает и отключает все устройства
// POST /api/devices/stop
func (h *HTTPHandler) StopAll(w http.ResponseWriter, r *http.Request) {
	h.registry.StopAll()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Device sessions stopped",
	})
}

// Discover возвращает список доступных устройств
// GET /api/discovery
func (h *HTTPHandler) Discover(w http.ResponseWriter, r *http.Request) {
	devices, err := h.scanner.Scan(r.Context())
	if err != nil {
		log.Printf("[ERROR] Discovery scan failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Scan failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"devices": devices,
		"count":   len(devices),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[ERROR] Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
