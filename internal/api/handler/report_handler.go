package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"clubhub/backend/internal/service"
	"clubhub/backend/pkg/response"
)

// ReportHandler 统计看板模块 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// AdminDashboard 管理员全局看板
// GET /api/v1/reports/admin
func (h *ReportHandler) AdminDashboard(c *gin.Context) {
	result, err := h.reportSvc.AdminDashboard(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// ClubDashboard 社长看板（仅自己社团的数据）
// GET /api/v1/reports/club
func (h *ReportHandler) ClubDashboard(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.reportSvc.ClubDashboard(c.Request.Context(), callerID)
	if err != nil {
		if errors.Is(err, service.ErrNoOwnedClub) {
			response.Forbidden(c, 14002, "当前用户未负责任何社团")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
