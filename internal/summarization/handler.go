package summarization

import (
	"github.com/gin-gonic/gin"

	"github.com/lecturenotes/backend/pkg/response"
)

// SummarizeRequest is the body for POST /api/lectures/summarize.
type SummarizeRequest struct {
	Transcript string `json:"transcript"`
}

// Handler handles summary generation. A nil summarizer means no API key is
// configured.
type Handler struct {
	summarizer *Summarizer
}

// NewHandler creates a summarization handler.
func NewHandler(summarizer *Summarizer) *Handler {
	return &Handler{summarizer: summarizer}
}

// Summarize handles POST /api/lectures/summarize. Nothing is persisted.
func (h *Handler) Summarize(c *gin.Context) {
	if h.summarizer == nil {
		response.ServiceUnavailable(c, "summarization is not configured")
		return
	}
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "no transcript provided")
		return
	}
	summary, err := h.summarizer.Summarize(c.Request.Context(), req.Transcript)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"summary": summary})
}
