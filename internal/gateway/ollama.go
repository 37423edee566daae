package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nguyentantai21042004/session-narrator/internal/logger"
	narrerr "github.com/nguyentantai21042004/session-narrator/pkg/errors"
)

const stageGenerate = "generate"

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

type generateResponse struct {
	Response *string `json:"response"`
	Error    *string `json:"error"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type implOllama struct {
	baseURL string
	model   string
	client  *http.Client
	logger  logger.Logger
}

// NewOllama creates a Gateway for an Ollama server at baseURL. timeout bounds
// each HTTP exchange; zero means no limit.
func NewOllama(baseURL, model string, timeout time.Duration, log logger.Logger) Client {
	return &implOllama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  log,
	}
}

func (o *implOllama) Model() string {
	return o.model
}

// Generate posts a non-streaming /api/generate request and returns the trimmed text.
func (o *implOllama) Generate(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:   o.model,
		Prompt:  req.Prompt,
		Stream:  false,
		Options: req.Options,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	o.logger.Debug(ctx, "POST %s/api/generate model=%s prompt_chars=%d temperature=%.2f",
		o.baseURL, o.model, len(req.Prompt), req.Options.Temperature)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", narrerr.Transport(stageGenerate, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", narrerr.Transport(stageGenerate, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", narrerr.Transport(stageGenerate, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", narrerr.Service(stageGenerate, "invalid response", err)
	}
	if out.Error != nil {
		return "", narrerr.Service(stageGenerate, "gateway error", fmt.Errorf("%s", *out.Error))
	}
	if out.Response == nil {
		return "", narrerr.Service(stageGenerate, narrerr.MsgEmptyResponse, nil)
	}

	text := strings.TrimSpace(*out.Response)
	if text == "" {
		return "", narrerr.Service(stageGenerate, narrerr.MsgEmptyResponse, nil)
	}
	return text, nil
}

// Check lists local models via /api/tags and looks for the configured one.
func (o *implOllama) Check(ctx context.Context) Status {
	status := Status{Backend: "ollama", URL: o.baseURL, Model: o.model}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		status.Error = fmt.Sprintf("create request: %v", err)
		return status
	}

	start := time.Now()
	resp, err := o.client.Do(req)
	status.Latency = time.Since(start)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return status
	}
	status.Reachable = true

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		status.Error = fmt.Sprintf("decode model list: %v", err)
		return status
	}

	for _, m := range tags.Models {
		status.Models = append(status.Models, m.Name)
		if m.Name == o.model {
			status.ModelAvailable = true
		}
	}
	if !status.ModelAvailable {
		status.Error = "model not found"
	}
	return status
}
