// Package transcription turns a lecture's stored audio into a transcript.
package transcription

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Backend converts a local audio file into text.
type Backend interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// CommandBackend runs an external program with the audio path as its last
// argument and reads the transcript from stdout.
type CommandBackend struct {
	Command string
	Args    []string
}

var _ Backend = (*CommandBackend)(nil)

// NewCommandBackend returns a backend running command with args.
func NewCommandBackend(command string, args ...string) *CommandBackend {
	return &CommandBackend{Command: command, Args: args}
}

// Transcribe runs the program to completion. A non-zero exit returns an
// error carrying whatever the program wrote to stderr.
func (b *CommandBackend) Transcribe(ctx context.Context, audioPath string) (string, error) {
	args := append(append([]string(nil), b.Args...), audioPath)
	cmd := exec.CommandContext(ctx, b.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", b.Command, err, msg)
		}
		return "", fmt.Errorf("%s: %w", b.Command, err)
	}
	return stdout.String(), nil
}
