package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/http/response"
	"github.com/yungbote/greenlight-backend/internal/services"
)

type CurriculumHandler struct {
	curriculum services.CurriculumService
	importer   services.ImportService
}

func NewCurriculumHandler(curriculum services.CurriculumService, importer services.ImportService) *CurriculumHandler {
	return &CurriculumHandler{curriculum: curriculum, importer: importer}
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

type moveRequest struct {
	Direction domainagg.Direction `json:"direction" binding:"required,oneof=up down"`
}

// GET /api/admin/curriculum-sets
func (h *CurriculumHandler) ListSets(c *gin.Context) {
	sets, err := h.curriculum.ListSets(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sets": sets})
}

// POST /api/admin/curriculum-sets
// body: { "name": "중1-1", "order": 3 }
func (h *CurriculumHandler) CreateSet(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Order *int   `json:"order"`
	}
	if !bindJSON(c, &req) {
		return
	}
	set, err := h.curriculum.AddSet(c.Request.Context(), domainagg.AddSetInput{Name: req.Name, Order: req.Order})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"set": set})
}

// PATCH /api/admin/curriculum-sets/:id
func (h *CurriculumHandler) RenameSet(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if !bindJSON(c, &req) {
		return
	}
	set, err := h.curriculum.RenameSet(c.Request.Context(), id, req.Name)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"set": set})
}

// POST /api/admin/curriculum-sets/:id/move
func (h *CurriculumHandler) MoveSet(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req moveRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.curriculum.MoveSet(c.Request.Context(), id, req.Direction)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, moveBody(res))
}

// DELETE /api/admin/curriculum-sets/:id?delete_items=true
func (h *CurriculumHandler) DeleteSet(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	deleteItems := false
	if raw := c.Query("delete_items"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		deleteItems = v
	}
	res, err := h.curriculum.DeleteSet(c.Request.Context(), domainagg.DeleteSetInput{SetID: id, DeleteItems: deleteItems})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"deleted_item_ids":    res.DeletedItemIDs,
		"unassigned_profiles": res.UnassignedProfiles,
	})
}

// GET /api/admin/curriculum-sets/:id/tree
func (h *CurriculumHandler) Tree(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	view, err := h.curriculum.Tree(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/admin/curriculum-sets/:id/items
// body: { "parent_id": "..." | null, "name": "...", "is_leaf": true }
func (h *CurriculumHandler) CreateItem(c *gin.Context) {
	setID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		ParentID *uuid.UUID `json:"parent_id"`
		Name     string     `json:"name" binding:"required"`
		IsLeaf   bool       `json:"is_leaf"`
	}
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.curriculum.AddItem(c.Request.Context(), domainagg.AddItemInput{
		SetID:    setID,
		ParentID: req.ParentID,
		Name:     req.Name,
		IsLeaf:   req.IsLeaf,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"item": item})
}

// PATCH /api/admin/curriculum-items/:id
func (h *CurriculumHandler) RenameItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.curriculum.RenameItem(c.Request.Context(), id, req.Name)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"item": item})
}

// POST /api/admin/curriculum-items/:id/move
func (h *CurriculumHandler) MoveItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req moveRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.curriculum.MoveItem(c.Request.Context(), id, req.Direction)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, moveBody(res))
}

// DELETE /api/admin/curriculum-items/:id
func (h *CurriculumHandler) DeleteItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	res, err := h.curriculum.DeleteItem(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"set_id": res.SetID, "deleted_ids": res.DeletedIDs})
}

const maxOutlineBytes = 1 << 20

// POST /api/admin/curriculum-sets/import (body: YAML outline)
func (h *CurriculumHandler) Import(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxOutlineBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "payload_too_large",
				errors.New("outline exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes"))
			return
		}
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	res, err := h.importer.ImportYAML(c.Request.Context(), bytes.NewReader(raw))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"set": res.Set, "items": res.Items})
}

func moveBody(res domainagg.MoveResult) gin.H {
	orders := make(map[string]int, len(res.Orders))
	for id, o := range res.Orders {
		orders[id.String()] = o
	}
	return gin.H{"moved": res.Moved, "orders": orders}
}
