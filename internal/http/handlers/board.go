package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/greenlight-backend/internal/http/response"
	"github.com/yungbote/greenlight-backend/internal/pkg/ctxutil"
	"github.com/yungbote/greenlight-backend/internal/services"
)

// BoardHandler serves progress boards and the writes made on them, both for
// the signed-in student (/api/me/...) and for admins acting on a student.
type BoardHandler struct {
	progress services.ProgressService
}

func NewBoardHandler(progress services.ProgressService) *BoardHandler {
	return &BoardHandler{progress: progress}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type memoRequest struct {
	StudentMemo *string `json:"student_memo"`
}

func self(c *gin.Context) uuid.UUID {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		return rd.UserID
	}
	return uuid.Nil
}

func (h *BoardHandler) board(c *gin.Context, studentID uuid.UUID) {
	view, err := h.progress.GetBoard(c.Request.Context(), studentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"board": view})
}

func (h *BoardHandler) status(c *gin.Context, studentID uuid.UUID) {
	itemID, ok := uuidParam(c, "itemId")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.progress.SetStatus(c.Request.Context(), studentID, itemID, req.Status)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": row})
}

// GET /api/me/board
func (h *BoardHandler) GetMyBoard(c *gin.Context) { h.board(c, self(c)) }

// PUT /api/me/progress/:itemId
func (h *BoardHandler) SetMyStatus(c *gin.Context) { h.status(c, self(c)) }

// PUT /api/me/memos/:itemId
func (h *BoardHandler) SetMyMemo(c *gin.Context) {
	itemID, ok := uuidParam(c, "itemId")
	if !ok {
		return
	}
	var req memoRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.progress.SetStudentMemo(c.Request.Context(), itemID, req.StudentMemo)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"memo": m})
}

// GET /api/children/:id/board and GET /api/admin/students/:id/board
func (h *BoardHandler) GetStudentBoard(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	h.board(c, id)
}

// PUT /api/admin/students/:id/progress/:itemId
func (h *BoardHandler) SetStudentStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	h.status(c, id)
}

// PUT /api/admin/students/:id/memos/:itemId
// body: { "admin_memo": "...", "youtube_url": "https://..." }
func (h *BoardHandler) SetAdminMemo(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "itemId")
	if !ok {
		return
	}
	var req services.AdminMemoInput
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.progress.SetAdminMemo(c.Request.Context(), id, itemID, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"memo": m})
}
