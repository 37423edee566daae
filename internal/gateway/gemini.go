package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/session-narrator/internal/logger"
	narrerr "github.com/nguyentantai21042004/session-narrator/pkg/errors"
)

type implGemini struct {
	apiKeys []string
	model   string
	logger  logger.Logger

	mu         sync.Mutex
	currentKey int
}

// NewGemini creates a Gateway backed by the Gemini API. Keys are rotated when one
// hits its rate limit.
func NewGemini(apiKeys []string, model string, log logger.Logger) Client {
	return &implGemini{
		apiKeys: apiKeys,
		model:   model,
		logger:  log,
	}
}

func (g *implGemini) Model() string {
	return g.model
}

// Generate sends the prompt to Gemini and returns the concatenated text parts.
func (g *implGemini) Generate(ctx context.Context, req Request) (string, error) {
	if len(g.apiKeys) == 0 {
		return "", narrerr.Service(stageGenerate, "no API keys configured", nil)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Options.Temperature)),
		TopK:        genai.Ptr(float32(req.Options.TopK)),
		TopP:        genai.Ptr(float32(req.Options.TopP)),
	}

	var lastErr error
	for range len(g.apiKeys) {
		client, err := g.newClient(ctx)
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			g.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
		if err != nil {
			if isRateLimited(err) {
				g.logger.Warn(ctx, "Gemini key %d rate limited, rotating...", g.keyIndex()+1)
				g.rotateKey()
				lastErr = err
				continue
			}
			return "", narrerr.Transport(stageGenerate, fmt.Errorf("generate content: %w", err))
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				if part != nil && part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			if out := strings.TrimSpace(text.String()); out != "" {
				return out, nil
			}
		}
		return "", narrerr.Service(stageGenerate, narrerr.MsgEmptyResponse, nil)
	}

	return "", narrerr.Service(stageGenerate, "all API keys exhausted", lastErr)
}

// Check asks Gemini for the configured model's metadata.
func (g *implGemini) Check(ctx context.Context) Status {
	status := Status{Backend: "gemini", Model: g.model}
	if len(g.apiKeys) == 0 {
		status.Error = "no API keys configured"
		return status
	}

	client, err := g.newClient(ctx)
	if err != nil {
		status.Error = fmt.Sprintf("create client: %v", err)
		return status
	}

	start := time.Now()
	model, err := client.Models.Get(ctx, g.model, nil)
	status.Latency = time.Since(start)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	status.Reachable = true
	status.ModelAvailable = model != nil
	if model != nil {
		status.Models = []string{model.Name}
	}
	return status
}

func (g *implGemini) newClient(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKeys[g.keyIndex()],
		Backend: genai.BackendGeminiAPI,
	})
}

func (g *implGemini) keyIndex() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentKey
}

func (g *implGemini) rotateKey() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
