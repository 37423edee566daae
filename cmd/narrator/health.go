package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/session-narrator/internal/gateway"
	"github.com/nguyentantai21042004/session-narrator/pkg/executor"
)

// HealthStatus is the result of narrator health.
type HealthStatus struct {
	Overall   string         `json:"overall"`
	Timestamp time.Time      `json:"timestamp"`
	Gateway   gateway.Status `json:"gateway"`
	Tools     []ToolStatus   `json:"tools"`
}

// ToolStatus describes one local dependency of the transcribe command.
type ToolStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Error  string `json:"error,omitempty"`
}

var (
	healthTimeout time.Duration
	healthJSON    bool
)

// NewHealthCommand creates the health command.
func NewHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the gateway and local transcription tools",
		Long: `Check that the gateway is reachable and serves the configured model, and that
ffmpeg, whisper.cpp and its model file are available for transcribe.

Only the gateway decides the exit status; missing transcription tools are
reported as warnings.`,
		RunE: runHealth,
	}

	cmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "Timeout for the gateway check")
	cmd.Flags().BoolVar(&healthJSON, "json", false, "Output as JSON")

	return cmd
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
	defer cancel()

	gw, err := gateway.New(cfg.Gateway, log)
	if err != nil {
		return err
	}

	status := HealthStatus{
		Timestamp: time.Now(),
		Gateway:   gw.Check(ctx),
		Tools:     checkTools(executor.New()),
	}
	status.Overall = "healthy"
	if !status.Gateway.Healthy() {
		status.Overall = "unhealthy"
	}

	if healthJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			return err
		}
	} else {
		outputHealthHuman(status)
	}

	if !status.Gateway.Healthy() {
		return fmt.Errorf("gateway %s is not ready: %s", status.Gateway.Backend, status.Gateway.Error)
	}
	return nil
}

func checkTools(exec executor.Executor) []ToolStatus {
	var tools []ToolStatus
	for _, name := range []string{cfg.FFmpeg.BinaryPath, cfg.Whisper.BinaryPath} {
		t := ToolStatus{Name: name, Status: "ok"}
		path, err := exec.LookPath(name)
		if err != nil {
			t.Status = "missing"
			t.Error = err.Error()
		}
		t.Path = path
		tools = append(tools, t)
	}

	model := ToolStatus{Name: "whisper model", Path: cfg.Whisper.ModelPath, Status: "ok"}
	switch {
	case cfg.Whisper.ModelPath == "":
		model.Status = "missing"
		model.Error = "whisper.model_path is not set"
	default:
		if _, err := os.Stat(cfg.Whisper.ModelPath); err != nil {
			model.Status = "missing"
			model.Error = err.Error()
		}
	}
	return append(tools, model)
}

func outputHealthHuman(s HealthStatus) {
	p := newProgressPrinter(os.Stdout)

	fmt.Println(p.render(titleStyle, "Gateway"))
	g := s.Gateway
	where := g.URL
	if where == "" {
		where = g.Backend
	}
	switch {
	case g.Healthy():
		fmt.Printf("  %s %s %s (%s)\n", p.render(okStyle, "✓"), where, g.Model, g.Latency.Round(time.Millisecond))
	case g.Reachable:
		fmt.Printf("  %s %s reachable but model %s is missing\n", p.render(warnStyle, "!"), where, g.Model)
		if len(g.Models) > 0 {
			fmt.Printf("    available: %v\n", g.Models)
		}
	default:
		fmt.Printf("  %s %s unreachable: %s\n", p.render(errorStyle, "✗"), where, g.Error)
	}

	fmt.Println(p.render(titleStyle, "Transcription tools"))
	for _, t := range s.Tools {
		if t.Status == "ok" {
			fmt.Printf("  %s %s %s\n", p.render(okStyle, "✓"), t.Name, p.render(mutedStyle, t.Path))
		} else {
			fmt.Printf("  %s %s: %s\n", p.render(warnStyle, "!"), t.Name, t.Error)
		}
	}
}
