package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"invalid level", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, New(tt.level))
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	log := NewWithOptions(Options{Level: "info", Format: "json", Output: &buf})

	log.Debug(ctx, "debug message")
	log.Info(ctx, "info message")
	log.Warn(ctx, "warn message")
	log.Error(ctx, "error message")
	log.Info(ctx, "formatted message: %s %d", "test", 123)

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.Contains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
	assert.Contains(t, out, "formatted message: test 123")
}

func TestShouldLog(t *testing.T) {
	tests := []struct {
		name        string
		configLevel string
		logLevel    string
		shouldLog   bool
	}{
		{"debug logs at debug level", "debug", "debug", true},
		{"info logs at debug level", "debug", "info", true},
		{"debug doesn't log at info level", "info", "debug", false},
		{"info logs at info level", "info", "info", true},
		{"error always logs", "debug", "error", true},
		{"invalid config defaults to info", "bogus", "debug", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.configLevel).(*implLogger)
			assert.Equal(t, tt.shouldLog, log.shouldLog(tt.logLevel))
		})
	}
}

func TestJobIDField(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{Level: "debug", Format: "json", Output: &buf})

	ctx := WithJobID(context.Background(), "job-42")
	log.Info(ctx, "chunk %d/%d", 1, 3)

	line := strings.TrimSpace(buf.String())
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &fields))
	assert.Equal(t, "job-42", fields["job_id"])
	assert.Equal(t, "chunk 1/3", fields["message"])
	assert.Equal(t, "info", fields["level"])
}

func TestJobIDMissing(t *testing.T) {
	assert.Equal(t, "", JobID(context.Background()))
	assert.Equal(t, "abc", JobID(WithJobID(context.Background(), "abc")))
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Error(context.Background(), "nothing %s", "here")
}
