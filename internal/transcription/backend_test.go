package transcription

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandBackendPassesPathLast(t *testing.T) {
	requireShell(t)
	b := NewCommandBackend("sh", "-c", `echo "transcript of $1"`, "transcriber")

	out, err := b.Transcribe(context.Background(), "/tmp/audio.mp3")
	require.NoError(t, err)
	assert.Equal(t, "transcript of /tmp/audio.mp3\n", out)
}

func TestCommandBackendNonZeroExit(t *testing.T) {
	requireShell(t)
	b := NewCommandBackend("sh", "-c", `echo "model not loaded" >&2; exit 3`, "transcriber")

	_, err := b.Transcribe(context.Background(), "/tmp/audio.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestCommandBackendMissingProgram(t *testing.T) {
	b := NewCommandBackend("definitely-not-a-transcriber-binary")
	_, err := b.Transcribe(context.Background(), "/tmp/audio.mp3")
	assert.Error(t, err)
}
