package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecturenotes/backend/pkg/apperr"
)

func render(t *testing.T, err error) (int, Body) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, err)

	var body Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", apperr.Validation("no transcript provided"), http.StatusBadRequest, "no transcript provided"},
		{"not found wrapped", fmt.Errorf("transcribe: %w", apperr.NotFound("audio not found")), http.StatusNotFound, "audio not found"},
		{"storage", apperr.Storage("failed to store audio", errors.New("disk full")), http.StatusInternalServerError, "failed to store audio"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := render(t, tt.err)
			assert.Equal(t, tt.status, code)
			assert.False(t, body.Success)
			assert.Equal(t, tt.msg, body.Error)
			assert.Empty(t, body.Details)
		})
	}
}

func TestErrorExternalCarriesDetails(t *testing.T) {
	code, body := render(t, apperr.External("failed to generate AI summary", errors.New("429 rate limited")))

	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "failed to generate AI summary", body.Error)
	assert.Equal(t, "429 rate limited", body.Details)
}
