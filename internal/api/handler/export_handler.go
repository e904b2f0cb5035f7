package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"clubhub/backend/internal/service"
	"clubhub/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportDriveApplications 导出活动申请为 Excel（归属社长）
// GET /api/v1/export/applications?drive_id=xxx
func (h *ExportHandler) ExportDriveApplications(c *gin.Context) {
	driveID := c.Query("drive_id")
	if driveID == "" {
		response.BadRequest(c, 10001, "drive_id 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportDriveApplications(c.Request.Context(), driveID, callerID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// DeadlineCalendar 进行中活动截止时间的 ICS 日历订阅
// GET /api/v1/export/calendar
func (h *ExportHandler) DeadlineCalendar(c *gin.Context) {
	buf, err := h.exportSvc.DeadlineCalendar(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=recruitment_deadlines.ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// handleExportError 统一处理导出模块业务错误
func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDriveNotFound):
		response.NotFound(c, 14001, "纳新活动不存在")
	case errors.Is(err, service.ErrExportNoApplications):
		response.BadRequest(c, 16101, "该活动暂无报名申请")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权操作")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
