package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/pappadam/internal/analysis"
)

// LiveController toggles Live mode.
type LiveController interface {
	SetLive(live bool) error
	IsLive() bool
	Session() string
	Latest() (analysis.Result, bool)
}

// LiveHandler handles GET/POST /api/live.
type LiveHandler struct {
	svc LiveController
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(svc LiveController) *LiveHandler {
	return &LiveHandler{svc: svc}
}

type liveRequest struct {
	Live *bool `json:"live"`
}

type liveResponse struct {
	Live    bool             `json:"live"`
	Session string           `json:"session,omitempty"`
	Latest  *analysis.Result `json:"latest,omitempty"`
}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.status())
	case http.MethodPost:
		var req liveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Live == nil {
			writeError(w, http.StatusBadRequest, `body must be {"live": true|false}`)
			return
		}
		if err := h.svc.SetLive(*req.Live); err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h.status())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *LiveHandler) status() liveResponse {
	resp := liveResponse{Live: h.svc.IsLive(), Session: h.svc.Session()}
	if res, ok := h.svc.Latest(); ok {
		resp.Latest = &res
	}
	return resp
}
