package transcription

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lecturenotes/backend/pkg/response"
)

// Handler handles POST /api/lectures/:id/transcribe.
type Handler struct {
	svc *Service
}

// NewHandler creates a transcription handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Transcribe runs transcription synchronously and returns {transcription}.
func (h *Handler) Transcribe(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	text, err := h.svc.Transcribe(c.Request.Context(), lectureID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"transcription": text})
}
