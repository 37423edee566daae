package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Gateway backends.
const (
	BackendOllama = "ollama"
	BackendGemini = "gemini"
)

type Config struct {
	Gateway     GatewayConfig     `yaml:"gateway"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Prompts     PromptsConfig     `yaml:"prompts"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Paths       PathsConfig       `yaml:"paths"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type GatewayConfig struct {
	Backend string        `yaml:"backend"`
	URL     string        `yaml:"url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	APIKeys []string      `yaml:"api_keys"`
	// Chunk-level calls sample with more randomness than the final reduce call.
	ChunkOptions SamplingConfig `yaml:"chunk_options"`
	FinalOptions SamplingConfig `yaml:"final_options"`
}

type SamplingConfig struct {
	Temperature float64 `yaml:"temperature"`
	TopK        int     `yaml:"top_k"`
	TopP        float64 `yaml:"top_p"`
}

type ChunkingConfig struct {
	MaxTokens int `yaml:"max_tokens"`
}

// PromptsConfig points at template files; empty means the built-in French prompts.
type PromptsConfig struct {
	ChunkFile string `yaml:"chunk_file"`
	FinalFile string `yaml:"final_file"`
}

type WhisperConfig struct {
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	SampleRate int    `yaml:"sample_rate"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
	Temp   string `yaml:"temp"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type MetricsConfig struct {
	Addr     string `yaml:"addr"`
	Textfile string `yaml:"textfile"`
}

// Default returns a configuration targeting a local Ollama instance.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path, applies environment overrides and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides gateway settings from OLLAMA_HOST, NARRATOR_MODEL and GEMINI_API_KEYS.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			v = "http://" + v
		}
		c.Gateway.URL = v
	}
	if v := os.Getenv("NARRATOR_MODEL"); v != "" {
		c.Gateway.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEYS"); v != "" {
		var keys []string
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		c.Gateway.APIKeys = keys
	}
}

func (c *Config) Validate() error {
	c.applyDefaults()

	switch c.Gateway.Backend {
	case BackendOllama:
		if c.Gateway.URL == "" {
			return fmt.Errorf("gateway.url is required")
		}
	case BackendGemini:
		if len(c.Gateway.APIKeys) == 0 {
			return fmt.Errorf("gateway.api_keys is required for the gemini backend")
		}
	default:
		return fmt.Errorf("gateway.backend %q is not supported", c.Gateway.Backend)
	}

	if c.Gateway.ChunkOptions.Temperature < c.Gateway.FinalOptions.Temperature {
		return fmt.Errorf("gateway.chunk_options.temperature must not be lower than gateway.final_options.temperature")
	}
	if c.Chunking.MaxTokens < 0 {
		return fmt.Errorf("chunking.max_tokens must be positive")
	}

	return nil
}

// ValidateTranscription checks the settings needed by the transcribe command.
func (c *Config) ValidateTranscription() error {
	if c.Whisper.ModelPath == "" {
		return fmt.Errorf("whisper.model_path is required")
	}
	if c.Whisper.BinaryPath == "" {
		return fmt.Errorf("whisper.binary_path is required")
	}
	if c.Whisper.Language == "" {
		return fmt.Errorf("whisper.language is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Gateway.Backend == "" {
		c.Gateway.Backend = BackendOllama
	}
	if c.Gateway.URL == "" && c.Gateway.Backend == BackendOllama {
		c.Gateway.URL = "http://localhost:11434"
	}
	if c.Gateway.Model == "" {
		if c.Gateway.Backend == BackendGemini {
			c.Gateway.Model = "gemini-2.5-flash"
		} else {
			c.Gateway.Model = "mistral:7b-instruct"
		}
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 10 * time.Minute
	}
	if c.Gateway.ChunkOptions == (SamplingConfig{}) {
		c.Gateway.ChunkOptions = SamplingConfig{Temperature: 0.4, TopK: 40, TopP: 0.9}
	}
	if c.Gateway.FinalOptions == (SamplingConfig{}) {
		c.Gateway.FinalOptions = SamplingConfig{Temperature: 0.3, TopK: 40, TopP: 0.9}
	}
	if c.Chunking.MaxTokens == 0 {
		c.Chunking.MaxTokens = 2000
	}
	if c.Whisper.BinaryPath == "" {
		c.Whisper.BinaryPath = "whisper-cli"
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "fr"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 8
	}
	if c.FFmpeg.BinaryPath == "" {
		c.FFmpeg.BinaryPath = "ffmpeg"
	}
	if c.FFmpeg.SampleRate == 0 {
		c.FFmpeg.SampleRate = 16000
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = os.TempDir()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
}
