package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/greenlight-backend/internal/http/response"
	"github.com/yungbote/greenlight-backend/internal/services"
)

type DashboardHandler struct {
	dashboard services.DashboardService
}

func NewDashboardHandler(dashboard services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /api/admin/dashboard
func (h *DashboardHandler) Overview(c *gin.Context) {
	out, err := h.dashboard.Overview(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}
