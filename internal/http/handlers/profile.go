package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/greenlight-backend/internal/http/response"
	"github.com/yungbote/greenlight-backend/internal/services"
)

type ProfileHandler struct {
	profiles services.ProfileService
}

func NewProfileHandler(profiles services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type contactRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// GET /api/me
func (h *ProfileHandler) GetMe(c *gin.Context) {
	me, err := h.profiles.Me(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PATCH /api/me
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var req contactRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.profiles.UpdateMyContact(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// GET /api/children
func (h *ProfileHandler) ListChildren(c *gin.Context) {
	kids, err := h.profiles.Children(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"children": kids})
}

// GET /api/admin/profiles?role=student&archived=include
func (h *ProfileHandler) List(c *gin.Context) {
	var f services.ProfileListFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	out, err := h.profiles.List(c.Request.Context(), f)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profiles": out})
}

// PATCH /api/admin/profiles/:id
func (h *ProfileHandler) UpdateContact(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req contactRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.profiles.UpdateContact(c.Request.Context(), id, req.Name, req.Phone)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// POST /api/admin/profiles/:id/approve
// body: { "role": "student" | "parent", "curriculum_id": "..." }
func (h *ProfileHandler) Approve(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role         string     `json:"role" binding:"required"`
		CurriculumID *uuid.UUID `json:"curriculum_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.profiles.Approve(c.Request.Context(), id, req.Role, req.CurriculumID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// PUT /api/admin/profiles/:id/curriculum
// body: { "curriculum_id": "..." | null }
func (h *ProfileHandler) AssignCurriculum(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		CurriculumID *uuid.UUID `json:"curriculum_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.profiles.AssignCurriculum(c.Request.Context(), id, req.CurriculumID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// PUT /api/admin/profiles/:id/links
// body: { "student_ids": ["..."] }
func (h *ProfileHandler) ReplaceLinks(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		StudentIDs []uuid.UUID `json:"student_ids"`
	}
	if !bindJSON(c, &req) {
		return
	}
	links, err := h.profiles.ReplaceParentLinks(c.Request.Context(), id, req.StudentIDs)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"links": links})
}

// POST /api/admin/profiles/:id/archive
func (h *ProfileHandler) Archive(c *gin.Context) { h.setArchived(c, true) }

// POST /api/admin/profiles/:id/unarchive
func (h *ProfileHandler) Unarchive(c *gin.Context) { h.setArchived(c, false) }

func (h *ProfileHandler) setArchived(c *gin.Context, archived bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := h.profiles.SetArchived(c.Request.Context(), id, archived)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// DELETE /api/admin/profiles/:id
func (h *ProfileHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.profiles.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
