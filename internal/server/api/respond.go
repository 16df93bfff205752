// Package api provides the HTTP API handlers for pappadam.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ayusman/pappadam/internal/app"
	"github.com/ayusman/pappadam/internal/capture"
	"github.com/ayusman/pappadam/internal/logger"
	"github.com/ayusman/pappadam/internal/vision"
)

// requestError is malformed request input, reported as 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...interface{}) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeFailure maps a domain error to a status code.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, capture.ErrImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.As(err, new(*requestError)),
		errors.Is(err, capture.ErrUnsupportedImage),
		errors.Is(err, app.ErrInvalidCalibration),
		errors.Is(err, app.ErrInvalidFPS):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, vision.ErrPrimitivesUnavailable),
		errors.Is(err, app.ErrLiveUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
