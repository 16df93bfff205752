package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"
)

// DefaultStreamFPS is the MJPEG rate when none is configured.
const DefaultStreamFPS = 15

// Previewer supplies the latest annotated Live frame.
type Previewer interface {
	Preview() (gocv.Mat, bool)
}

// StreamHandler serves the Live preview as MJPEG.
type StreamHandler struct {
	source   Previewer
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler emitting at most fps frames per
// second.
func NewStreamHandler(source Previewer, fps int) *StreamHandler {
	if fps <= 0 {
		fps = DefaultStreamFPS
	}
	return &StreamHandler{source: source, interval: time.Second / time.Duration(fps)}
}

// ServeHTTP streams MJPEG frames until the client goes away. While Live
// mode is off the stream stays open and idle.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame, ok := h.source.Preview()
		if !ok {
			continue
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
		frame.Close()
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		_, werr := w.Write(buf.GetBytes())
		fmt.Fprintf(w, "\r\n")
		buf.Close()
		if werr != nil {
			return
		}

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
