package media

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lecturenotes/backend/pkg/response"
)

// FormField is the multipart field carrying the audio file.
const FormField = "audio"

// Handler handles lecture audio endpoints.
type Handler struct {
	svc            *Service
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandler creates a media handler. maxUploadBytes <= 0 disables the limit.
func NewHandler(svc *Service, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Upload handles POST /api/lectures/:id/audio.
func (h *Handler) Upload(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	file, err := c.FormFile(FormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			response.RequestTooLarge(c, "audio file too large")
			return
		}
		response.BadRequest(c, "no audio file uploaded (form field: audio)")
		return
	}
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	ref, err := h.svc.Upload(c.Request.Context(), lectureID, Upload{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        rc,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"audioUrl": ref})
}

// Get handles GET /api/lectures/:id/audio, redirecting to a signed URL when
// the store provides one.
func (h *Handler) Get(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	url, err := h.svc.PresignedURL(c.Request.Context(), lectureID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if url != "" {
		c.Redirect(http.StatusTemporaryRedirect, url)
		return
	}
	rc, contentType, err := h.svc.Open(c.Request.Context(), lectureID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

// Delete handles DELETE /api/lectures/:id/audio.
func (h *Handler) Delete(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	if err := h.svc.DeleteAudio(c.Request.Context(), lectureID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Audio deleted successfully"})
}
