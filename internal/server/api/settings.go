package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/pappadam/internal/metrics"
)

// Settings reads and updates user settings.
type Settings interface {
	Calibration() metrics.Calibration
	SetCalibration(diameterCm float64) error
	LiveFPS() int
	SetLiveFPS(fps int) error
}

// SettingsHandler handles /api/settings/calibration and /api/settings/live.
type SettingsHandler struct {
	svc Settings
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(svc Settings) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

type calibrationBody struct {
	DiameterCm float64 `json:"diameter_cm"`
}

type liveSettingsBody struct {
	FPS int `json:"fps"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/settings/calibration":
		h.calibration(w, r)
	case "/api/settings/live":
		h.live(w, r)
	default:
		writeError(w, http.StatusNotFound, "unknown setting")
	}
}

func (h *SettingsHandler) calibration(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, calibrationBody{DiameterCm: h.svc.Calibration().DiameterCm})
	case http.MethodPut:
		var req calibrationBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if err := h.svc.SetCalibration(req.DiameterCm); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, calibrationBody{DiameterCm: h.svc.Calibration().DiameterCm})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) live(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, liveSettingsBody{FPS: h.svc.LiveFPS()})
	case http.MethodPut:
		var req liveSettingsBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if err := h.svc.SetLiveFPS(req.FPS); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, liveSettingsBody{FPS: h.svc.LiveFPS()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
