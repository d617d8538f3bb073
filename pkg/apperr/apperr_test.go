package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	base := NotFound("audio not found")
	wrapped := fmt.Errorf("delete audio: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := External("failed to transcribe audio", cause)

	assert.Equal(t, "failed to transcribe audio: exit status 1", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "audio not found", NotFound("audio not found").Error())
}
