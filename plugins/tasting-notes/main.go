// Package main is an example external commentary provider.
// It reads analysis figures as JSON on stdin and writes a tasting-note
// personality and horoscope to stdout. Point PAPPADAM_COMMENTARY_CMD at the
// built binary to use it.
package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Request mirrors the commentary input the analyzer sends.
type Request struct {
	Count         int       `json:"count"`
	AvgDiameterPx float64   `json:"avg_diameter_px"`
	AvgDiameterCm float64   `json:"avg_diameter_cm"`
	DensityPerCm2 float64   `json:"density_per_cm2"`
	Diameters     []float64 `json:"diameters"`
}

// Report holds the fields this provider fills. Omitted fields are filled by
// the analyzer's built-in commentary.
type Report struct {
	Personality string `json:"personality,omitempty"`
	Horoscope   string `json:"horoscope,omitempty"`
}

// Response is written to stdout.
type Response struct {
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
	Report  *Report `json:"report,omitempty"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}
	if req.Count < 0 {
		writeErrorResponse(fmt.Sprintf("invalid count: %d", req.Count))
		return
	}

	writeReport(&Report{
		Personality: personality(req),
		Horoscope:   horoscope(req),
	})
}

func personality(req Request) string {
	switch {
	case req.Count == 0:
		return "Glassy Minimalist"
	case req.AvgDiameterCm >= 1.5:
		return fmt.Sprintf("Bold Blisterer (%d bubbles)", req.Count)
	case req.Count > 40:
		return fmt.Sprintf("Fizzy Extrovert (%d bubbles)", req.Count)
	default:
		return fmt.Sprintf("Quiet Crackler (%d bubbles)", req.Count)
	}
}

func horoscope(req Request) string {
	switch {
	case req.DensityPerCm2 > 0.25:
		return "Notes of cumin and confidence. Serve immediately."
	case req.DensityPerCm2 > 0.12:
		return "A balanced crunch with a lingering finish."
	default:
		return "Subtle on the palate. Pairs well with a second helping of chutney."
	}
}

func writeReport(r *Report) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Report: r})
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}
