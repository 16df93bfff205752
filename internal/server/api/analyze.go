package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/pappadam/internal/analysis"
	"github.com/ayusman/pappadam/internal/app"
	"github.com/ayusman/pappadam/internal/capture"
)

// maxMultipartMemory is kept in memory before multipart parts spill to disk.
const maxMultipartMemory = 8 << 20

// Analyzer runs a single analysis pass on an encoded image.
type Analyzer interface {
	Analyze(data []byte, diameterCm float64) (app.Report, error)
}

// Comparer ranks two encoded images.
type Comparer interface {
	Compare(ctx context.Context, left, right []byte) (analysis.Comparison, error)
}

// AnalyzeHandler handles POST /api/analyze.
type AnalyzeHandler struct {
	svc Analyzer
}

// NewAnalyzeHandler creates a new AnalyzeHandler.
func NewAnalyzeHandler(svc Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc}
}

// ServeHTTP accepts either a raw image body or a multipart form with an
// "image" part. The optional diameter_cm query parameter overrides the
// stored calibration for this request.
func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var diameter float64
	if v := r.URL.Query().Get("diameter_cm"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "diameter_cm must be a positive number")
			return
		}
		diameter = d
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		data, err = formFile(w, r, "image")
	} else {
		data, err = capture.ReadUpload(r.Body)
	}
	if err != nil {
		writeFailure(w, err)
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	report, err := h.svc.Analyze(data, diameter)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CompareHandler handles POST /api/compare.
type CompareHandler struct {
	svc Comparer
}

// NewCompareHandler creates a new CompareHandler.
func NewCompareHandler(svc Comparer) *CompareHandler {
	return &CompareHandler{svc: svc}
}

type compareResponse struct {
	analysis.Comparison
	Message string `json:"message"`
}

// ServeHTTP expects a multipart form with "left" and "right" image parts.
func (h *CompareHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	left, err := formFile(w, r, "left")
	if err != nil {
		writeFailure(w, err)
		return
	}
	right, err := formFile(w, r, "right")
	if err != nil {
		writeFailure(w, err)
		return
	}

	result, err := h.svc.Compare(r.Context(), left, right)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, compareResponse{
		Comparison: result,
		Message:    result.Winner.Message(),
	})
}

func formFile(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	if r.MultipartForm == nil {
		r.Body = http.MaxBytesReader(w, r.Body, 2*capture.MaxUploadBytes)
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, capture.ErrImageTooLarge
			}
			return nil, badRequest("invalid multipart form: %v", err)
		}
	}

	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, badRequest("%s image is required", field)
	}
	defer f.Close()

	return capture.ReadUpload(f)
}
