package lectures

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lecturenotes/backend/internal/models"
	"github.com/lecturenotes/backend/pkg/response"
)

// CreateRequest is the body for POST /api/lectures. unitId is accepted for
// older clients.
type CreateRequest struct {
	Name         string `json:"name" binding:"required"`
	UnitID       string `json:"unit_id"`
	LegacyUnitID string `json:"unitId"`
}

// NotesRequest is the body for POST/PUT /api/lectures/:id/notes.
type NotesRequest struct {
	Notes *string `json:"notes"`
}

// SummaryRequest is the body for POST /api/lectures/:id/summary.
type SummaryRequest struct {
	Summary *string `json:"summary"`
}

// Handler handles lecture CRUD and annotation endpoints.
type Handler struct {
	store       Store
	units       UnitLookup
	annotations *Annotations
	notify      Notifier
	logger      *zap.Logger
}

// NewHandler creates a lectures handler.
func NewHandler(store Store, units UnitLookup, annotations *Annotations, notify Notifier, logger *zap.Logger) *Handler {
	if notify == nil {
		notify = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, units: units, annotations: annotations, notify: notify, logger: logger}
}

// Create handles POST /api/lectures.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	raw := req.UnitID
	if raw == "" {
		raw = req.LegacyUnitID
	}
	unitID, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(c, "valid unit_id required")
		return
	}
	ok, err := h.units.Exists(c.Request.Context(), unitID)
	if err != nil {
		h.logger.Error("unit lookup failed", zap.Error(err), zap.String("unit_id", unitID.String()))
		response.Error(c, err)
		return
	}
	if !ok {
		response.NotFound(c, "unit not found")
		return
	}

	l := &models.Lecture{Name: req.Name, UnitID: unitID}
	if err := h.store.Create(c.Request.Context(), l); err != nil {
		h.logger.Error("create lecture failed", zap.Error(err), zap.String("unit_id", unitID.String()))
		response.Error(c, err)
		return
	}
	h.notify.NotifyLecture(EventCreated, l)
	response.Created(c, l)
}

// GetByID handles GET /api/lectures/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	l, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, l)
}

// ListByUnit handles GET /api/units/:id/lectures.
func (h *Handler) ListByUnit(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid unit id")
		return
	}
	list, err := h.store.ListByUnit(c.Request.Context(), unitID)
	if err != nil {
		h.logger.Error("list lectures failed", zap.Error(err), zap.String("unit_id", unitID.String()))
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /api/lectures/:id. Audio files are not removed.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	l, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.notify.NotifyLecture(EventDeleted, l)
	response.OK(c, gin.H{"id": l.ID})
}

// GetNotes handles GET /api/lectures/:id/notes.
func (h *Handler) GetNotes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	notes, err := h.annotations.Notes(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"notes": notes})
}

// SetNotes handles POST/PUT /api/lectures/:id/notes. A null or empty value clears the notes.
func (h *Handler) SetNotes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	l, err := h.annotations.SetNotes(c.Request.Context(), id, req.Notes)
	if err != nil {
		h.logger.Error("save notes failed", zap.Error(err), zap.String("lecture_id", id.String()))
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"notes": l.Notes})
}

// SaveSummary handles POST /api/lectures/:id/summary, persisting a summary
// the client generated (and possibly previewed) earlier.
func (h *Handler) SaveSummary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lecture id")
		return
	}
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	l, err := h.annotations.SetSummary(c.Request.Context(), id, req.Summary)
	if err != nil {
		h.logger.Error("save summary failed", zap.Error(err), zap.String("lecture_id", id.String()))
		response.Error(c, err)
		return
	}
	h.logger.Info("summary saved", zap.String("lecture_id", id.String()))
	response.OK(c, gin.H{"ai_summary": l.AISummary, "message": "Summary saved successfully"})
}
