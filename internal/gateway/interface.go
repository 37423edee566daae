// Package gateway talks to the text-generation service that writes the summaries.
package gateway

import (
	"context"
	"time"
)

// Gateway generates text for a prompt. Implementations must return errors
// classified by pkg/errors: transport failures vs. service-side failures.
type Gateway interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// Checker reports whether the service is reachable and serves the configured model.
type Checker interface {
	Check(ctx context.Context) Status
}

// Client is a Gateway that can also report its health.
type Client interface {
	Gateway
	Checker
}

// Request is one non-streaming generation call.
type Request struct {
	Prompt  string
	Options Options
}

// Options are the sampling parameters sent with a request.
type Options struct {
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
	TopP        float64 `json:"top_p"`
}

// Status is the result of a health check.
type Status struct {
	Backend        string        `json:"backend"`
	URL            string        `json:"url,omitempty"`
	Model          string        `json:"model"`
	Reachable      bool          `json:"reachable"`
	ModelAvailable bool          `json:"model_available"`
	Models         []string      `json:"models,omitempty"`
	Latency        time.Duration `json:"latency"`
	Error          string        `json:"error,omitempty"`
}

// Healthy reports whether the service is up and has the model.
func (s Status) Healthy() bool {
	return s.Reachable && s.ModelAvailable
}
