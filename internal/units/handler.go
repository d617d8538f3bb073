package units

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lecturenotes/backend/internal/models"
	"github.com/lecturenotes/backend/pkg/response"
)

// CourseLookup checks that a parent course exists.
type CourseLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Handler handles unit HTTP endpoints.
type Handler struct {
	store   Store
	courses CourseLookup
	logger  *zap.Logger
}

// NewHandler creates a units handler.
func NewHandler(store Store, courses CourseLookup, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, courses: courses, logger: logger}
}

// CreateRequest is the body for POST /api/units. courseId is accepted for
// older clients.
type CreateRequest struct {
	Name           string  `json:"name" binding:"required"`
	Description    *string `json:"description"`
	CourseID       string  `json:"course_id"`
	LegacyCourseID string  `json:"courseId"`
}

// Create handles POST /api/units.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name and course_id required")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		response.BadRequest(c, "name required")
		return
	}
	raw := req.CourseID
	if raw == "" {
		raw = req.LegacyCourseID
	}
	courseID, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(c, "valid course_id required")
		return
	}
	ok, err := h.courses.Exists(c.Request.Context(), courseID)
	if err != nil {
		h.logger.Error("course lookup failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Error(c, err)
		return
	}
	if !ok {
		response.NotFound(c, "course not found")
		return
	}
	u := &models.Unit{Name: req.Name, Description: models.NullableText(req.Description), CourseID: courseID}
	if err := h.store.Create(c.Request.Context(), u); err != nil {
		h.logger.Error("create unit failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Created(c, u)
}

// ListByCourse handles GET /api/courses/:id/units.
func (h *Handler) ListByCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid course id")
		return
	}
	list, err := h.store.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		h.logger.Error("list units failed", zap.Error(err), zap.String("course_id", courseID.String()))
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /api/units/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid unit id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id})
}
