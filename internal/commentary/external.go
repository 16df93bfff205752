package commentary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ayusman/pappadam/internal/logger"
)

// DefaultExternalTimeout bounds one run of an external provider.
const DefaultExternalTimeout = 2 * time.Second

// externalResponse is what an external provider writes to stdout.
type externalResponse struct {
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
	Report  *Report `json:"report,omitempty"`
}

// External is a Provider backed by an executable. The executable receives
// the Input as JSON on stdin and answers with
// {"success": true, "report": {...}} on stdout. Fields it leaves empty, and
// every failed run, are filled in by Fallback.
type External struct {
	Path     string
	Timeout  time.Duration
	Fallback Provider
}

// NewExternal creates an External provider for the executable at path,
// falling back to Seeded.
func NewExternal(path string) *External {
	return &External{
		Path:     path,
		Timeout:  DefaultExternalTimeout,
		Fallback: Seeded{},
	}
}

// Describe implements Provider.
func (e *External) Describe(in Input) Report {
	builtin := e.Fallback
	if builtin == nil {
		builtin = Seeded{}
	}
	fallback := builtin.Describe(in)

	r, err := e.Run(context.Background(), in)
	if err != nil {
		logger.WithComponent("commentary").WithError(err).WithField("provider", e.Path).Warn("external commentary failed, using built-in")
		return fallback
	}

	if r.Personality == "" {
		r.Personality = fallback.Personality
	}
	if r.Horoscope == "" {
		r.Horoscope = fallback.Horoscope
	}
	if r.OilMl < 2 {
		r.OilMl = fallback.OilMl
	}
	if r.Melody == nil {
		r.Melody = fallback.Melody
	}
	return r
}

// Run executes the provider once, bounded by Timeout.
func (e *External) Run(ctx context.Context, in Input) (Report, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultExternalTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.Path)
	cmd.Dir = filepath.Dir(e.Path)

	reqJSON, err := json.Marshal(in)
	if err != nil {
		return Report{}, fmt.Errorf("failed to marshal input: %w", err)
	}
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Report{}, fmt.Errorf("provider timed out after %s", timeout)
	}
	if err != nil {
		if stderr.Len() > 0 {
			return Report{}, fmt.Errorf("provider failed: %w, stderr: %s", err, stderr.String())
		}
		return Report{}, fmt.Errorf("provider failed: %w", err)
	}

	var resp externalResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return Report{}, fmt.Errorf("failed to parse provider response: %w, stdout: %s", err, stdout.String())
	}
	if !resp.Success {
		return Report{}, fmt.Errorf("provider error: %s", resp.Error)
	}
	if resp.Report == nil {
		return Report{}, errors.New("provider returned no report")
	}
	return *resp.Report, nil
}
