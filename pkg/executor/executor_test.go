package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	out, err := New().Execute(context.Background(), "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestExecuteFailureIncludesStderr(t *testing.T) {
	_, err := New().Execute(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command 'sh' failed")
	assert.Contains(t, err.Error(), "stderr: broken")
}

func TestExecuteInDir(t *testing.T) {
	dir := t.TempDir()
	out, err := New().ExecuteInDir(context.Background(), dir, "pwd")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), strings.TrimPrefix(dir, "/private")))
}

func TestLookPath(t *testing.T) {
	_, err := New().LookPath("sh")
	assert.NoError(t, err)

	_, err = New().LookPath("definitely-not-a-real-binary-xyz")
	assert.Error(t, err)
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "c\nd", lastLines("a\nb\nc\nd\n", 2))
	assert.Equal(t, "", lastLines("  \n", 5))
}
